// Package httpapi exposes the room side channel over HTTP and mounts the
// websocket endpoint.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draft-room/internal/hub"
	"github.com/DoyleJ11/draft-room/internal/storage"
	"github.com/DoyleJ11/draft-room/internal/ws"
)

type Deps struct {
	Hub    *hub.Hub
	Store  storage.Store
	WS     ws.Config
	Logger *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "http"))
	if d.WS.Logger == nil {
		d.WS.Logger = d.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Post("/rooms", CreateRoom(d.Hub, log))
	r.Get("/rooms/{roomID:[a-zA-Z0-9]+}", GetRoom(d.Hub, log))
	r.Get("/rooms/{roomID:[a-zA-Z0-9]+}/actions", ListActions(d.Store, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.WS))
	return r
}

// cors allows any origin to use the JSON endpoints and answers preflights.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
