package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/friendapi/internal/api/apierr"
	"github.com/mcoot/friendapi/internal/middleware"
)

// writeError writes err as a JSON error body. Failures on our side are
// logged with the request id; client mistakes are left to the access log.
func (h *FriendsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apierr.Status(err) >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("request_id", middleware.RequestIDFrom(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	apierr.WriteError(w, err)
}
