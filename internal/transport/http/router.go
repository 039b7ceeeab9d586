package http

import (
	"net/http"

	"github.com/mayssameid/Clash-of-Digits/internal/app"
	"go.uber.org/zap"
)

type RouterOptions struct {
	AllowedOrigins []string
	CORSDebug      bool
	RateLimiter    *RateLimiter
	Logger         *zap.Logger
}

// NewRouter wires the REST API, websocket endpoints and middleware.
func NewRouter(service *app.ArenaService, opts RouterOptions) http.Handler {
	api := NewAPIHandler(service, opts.Logger)
	ws := NewWSHandler(service, opts.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)
	mux.HandleFunc("GET /ws/arena", ws.ServeArena)
	mux.HandleFunc("GET /ws/leaderboard", ws.ServeLeaderboard)

	var handler http.Handler = mux
	if opts.RateLimiter != nil {
		handler = opts.RateLimiter.Middleware(handler)
	}
	return NewCORS(opts.AllowedOrigins, opts.CORSDebug).Handler(handler)
}
