package consumers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	pkgerrors "github.com/DarkRecklessness/ShopService/pkg/errors"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
	"github.com/DarkRecklessness/ShopService/pkg/metrics"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/registry"
)

const defaultErrorBackoff = time.Second

type payloadDecoder interface {
	Decode(queue string, msg messaging.Message) (registry.Payload, error)
}

type deadLetterWriter interface {
	Insert(ctx context.Context, entry models.DeadLetter) error
}

// ApplyFunc runs the business side of one decoded message. The returned
// label is reported as the inbound outcome, e.g. metrics.OutcomeDuplicate.
type ApplyFunc func(ctx context.Context, msg messaging.Message, payload registry.Payload) (string, error)

type Params struct {
	Queue        string
	Logger       *logger.Logger
	Decoder      payloadDecoder
	DeadLetters  deadLetterWriter
	Metrics      *metrics.ConsumerMetrics
	ErrorBackoff time.Duration
	Apply        ApplyFunc
}

// Processor is the inbound side of a service: it decodes each delivery,
// parks poison messages in the dead-letter table and applies the rest.
type Processor struct {
	queue        string
	logg         *logger.Logger
	decoder      payloadDecoder
	deadLetters  deadLetterWriter
	metrics      *metrics.ConsumerMetrics
	errorBackoff time.Duration
	apply        ApplyFunc
}

func NewProcessor(params Params) (*Processor, error) {
	if strings.TrimSpace(params.Queue) == "" {
		return nil, fmt.Errorf("queue required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Decoder == nil {
		return nil, fmt.Errorf("payload decoder required")
	}
	if params.DeadLetters == nil {
		return nil, fmt.Errorf("dead letter repository required")
	}
	if params.Apply == nil {
		return nil, fmt.Errorf("apply func required")
	}
	backoff := params.ErrorBackoff
	if backoff <= 0 {
		backoff = defaultErrorBackoff
	}
	return &Processor{
		queue:        params.Queue,
		logg:         params.Logger,
		decoder:      params.Decoder,
		deadLetters:  params.DeadLetters,
		metrics:      params.Metrics,
		errorBackoff: backoff,
		apply:        params.Apply,
	}, nil
}

func (p *Processor) Queue() string {
	return p.queue
}

// Run consumes the processor's queue until ctx is cancelled.
func (p *Processor) Run(ctx context.Context, sub messaging.Subscriber) error {
	ctx = p.logg.WithField(ctx, "queue", p.queue)
	p.logg.Info(ctx, "inbound consumer started")
	for {
		err := sub.Consume(ctx, p.queue, p.Handle)
		if ctx.Err() != nil {
			p.logg.Info(ctx, "inbound consumer stopped")
			return nil
		}
		if err != nil {
			p.logg.Error(ctx, "inbound consumer failed, restarting", err)
		}
		p.pause(ctx)
	}
}

// Handle settles one delivery. Transient failures requeue after the error
// backoff; everything else is acked.
func (p *Processor) Handle(ctx context.Context, msg messaging.Message) messaging.Outcome {
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"queue":       p.queue,
		"message_id":  msg.ID,
		"event_type":  msg.EventType,
		"redelivered": msg.Redelivered,
	})

	payload, err := p.decoder.Decode(p.queue, msg)
	if err != nil {
		return p.deadLetter(logCtx, msg, err)
	}

	outcome, err := p.apply(logCtx, msg, payload)
	if err != nil {
		if !pkgerrors.Retryable(err) {
			return p.deadLetter(logCtx, msg, registry.NewNonRetryableError(enums.DeadLetterInvalidPayload, err))
		}
		p.logg.Error(logCtx, "inbound message failed, requeueing", err)
		p.metrics.Inc(p.queue, metrics.OutcomeRequeued)
		p.pause(ctx)
		return messaging.Requeue
	}

	p.metrics.Inc(p.queue, outcome)
	return messaging.Ack
}

func (p *Processor) deadLetter(ctx context.Context, msg messaging.Message, cause error) messaging.Outcome {
	reason := enums.DeadLetterDecodeFailed
	var nonRetry registry.NonRetryableError
	if errors.As(cause, &nonRetry) && nonRetry.Reason.IsValid() {
		reason = nonRetry.Reason
	}

	errMsg := storableText(cause.Error())
	entry := models.DeadLetter{
		Queue:        p.queue,
		MessageID:    storableText(msg.ID),
		EventType:    storableText(msg.EventType),
		Body:         storableText(string(msg.Body)),
		ErrorReason:  reason,
		ErrorMessage: &errMsg,
	}
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"error_reason": reason,
		"error":        errMsg,
	})
	if err := p.deadLetters.Insert(ctx, entry); err != nil {
		p.logg.Error(p.logg.WithFields(logCtx, pkgerrors.Dump(err).LogFields()), "dead letter insert failed, requeueing", err)
		p.metrics.Inc(p.queue, metrics.OutcomeRequeued)
		p.pause(ctx)
		return messaging.Requeue
	}

	p.logg.Warn(logCtx, "inbound message dead-lettered")
	p.metrics.Inc(p.queue, metrics.OutcomeDeadLetter)
	return messaging.Ack
}

// storableText makes raw broker bytes acceptable to a TEXT column: postgres
// rejects NUL bytes and invalid UTF-8 outright.
func storableText(raw string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(raw, "\x00", ""), "\uFFFD")
}

func (p *Processor) pause(ctx context.Context) {
	timer := time.NewTimer(p.errorBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
