package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/DarkRecklessness/ShopService/pkg/errors"
)

// ParseQueryID reads a required positive integer query parameter.
func ParseQueryID(r *http.Request, key string) (int64, error) {
	return parseID(r.URL.Query().Get(key), key, "query parameter")
}

// ParsePathID reads a positive integer chi URL parameter.
func ParsePathID(r *http.Request, key string) (int64, error) {
	return parseID(chi.URLParam(r, key), key, "path parameter")
}

func parseID(raw, key, kind string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, kind+" is required").WithDetails(map[string]any{"field": key})
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, kind+" must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, kind+" must be positive").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
