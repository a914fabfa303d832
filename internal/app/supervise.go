package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Component is one long-running loop of a service process.
type Component struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervise runs every component until ctx is cancelled or one of them fails,
// in which case the rest are cancelled too. Cancellation is not an error.
func Supervise(ctx context.Context, logg *logger.Logger, components ...Component) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range components {
		g.Go(func() error {
			cctx := logg.WithField(gctx, "component", c.Name)
			logg.Info(cctx, "component starting")
			err := c.Run(cctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			logg.Info(cctx, "component stopped")
			return nil
		})
	}
	return g.Wait()
}

// HTTPServer serves handler on addr and shuts it down gracefully when ctx
// ends.
func HTTPServer(addr string, handler http.Handler, logg *logger.Logger) Component {
	return Component{
		Name: "http",
		Run: func(ctx context.Context) error {
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logg.Info(logg.WithField(ctx, "addr", addr), "http server listening")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http shutdown: %w", err)
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
