package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// chatProxy forwards chat API requests to the backend unchanged. The
// transcript protocol lives in the clients; the gateway stays transparent so
// backend and dashboard can evolve without redeploying it.
type chatProxy struct {
	proxy *httputil.ReverseProxy
	log   *slog.Logger
}

func newChatProxy(backendURL string, log *slog.Logger) (*chatProxy, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	rp := httputil.NewSingleHostReverseProxy(target)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error("backend unreachable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success":    false,
			"message":    "backend unreachable",
			"statusCode": http.StatusBadGateway,
		})
	}

	return &chatProxy{proxy: rp, log: log}, nil
}

func (p *chatProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}
