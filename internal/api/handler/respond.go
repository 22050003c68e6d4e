package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/UzukeeIA/ROBUXFREE/internal/common"
)

const maxRequestBodyBytes = 1 << 20

// decodeJSON reads exactly one JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return common.Validationf("request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return common.Validationf("request body too large")
		}
		return common.Validationf("invalid request payload")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return common.Validationf("invalid request payload")
	}
	return nil
}

// respondError writes err through the common mapping and logs the ones the
// client does not get to see.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := common.HTTPStatusFromError(err)
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	case status == http.StatusBadGateway:
		logger.WarnContext(r.Context(), "upstream failure", "path", r.URL.Path, "error", err)
	}
	common.RespondWithDomainError(w, err)
}
