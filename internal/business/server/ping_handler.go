package server

import (
	"context"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/pkg/session"
)

type pingResponse struct {
	Result  string `json:"result"`
	Session string `json:"session"`
}

// ping reports that the server is up and how far the session got.
func (h *handlers) ping(ctx context.Context, _ http.ResponseWriter, _ *http.Request, _ any) (any, error) {
	status := session.StatusLoading
	if h.deps.Session != nil {
		status = h.deps.Session.Status()
	}

	slogctx.Debug(ctx, "Answering ping", "session", status)

	return jsonResponse{
		status: http.StatusOK,
		body:   pingResponse{Result: "pong", Session: status.String()},
	}, nil
}
