package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/blood-donation/internal/pkg/ctxlog"
)

// ErrorMapping maps a sentinel error to an HTTP status and message.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // defaults to the sentinel's text
}

// HandleError writes the response of the first mapping whose sentinel matches err.
// Unmatched errors are logged and answered with 500 and a generic message.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = m.Error.Error()
		}
		Error(w, m.Status, msg)
		return
	}

	ctxlog.FromContext(ctx).Error("request failed", "error", err)
	Error(w, http.StatusInternalServerError, MsgInternal)
}
