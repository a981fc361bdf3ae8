package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/hub"
	"github.com/DoyleJ11/draft-room/internal/storage"
	"github.com/DoyleJ11/draft-room/pkg/types"
)

const maxBodyBytes = 64 << 10

// CreateRoom starts a room from the posted match config and returns its id.
// An empty body creates a room with every default.
func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg engine.MatchConfig
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := cfg.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rm, err := h.Create(r.Context(), cfg)
		if err != nil {
			log.Error("create room failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create room")
			return
		}
		log.Info("room created", zap.String("room_id", rm.ID()))
		writeJSON(w, http.StatusOK, types.CreateRoomResponse{RoomID: rm.ID()})
	}
}

// ListActions returns the logged actions with seq greater than afterSeq so
// a client can fill a gap in the broadcasts it saw.
func ListActions(store storage.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")

		afterSeq := 0
		if raw := r.URL.Query().Get("afterSeq"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "afterSeq must be a non-negative integer")
				return
			}
			afterSeq = n
		}

		actions, err := store.ListActionsAfter(r.Context(), roomID, afterSeq)
		if err != nil {
			log.Error("list actions failed", zap.String("room_id", roomID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list actions")
			return
		}
		if actions == nil {
			actions = []engine.DraftAction{}
		}
		writeJSON(w, http.StatusOK, types.ActionsResponse{Actions: actions})
	}
}

// GetRoom returns the current snapshot of a room, hydrating it if needed.
func GetRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")

		rm, err := h.Ensure(r.Context(), roomID, engine.MatchConfig{})
		if err != nil {
			log.Error("resolve room failed", zap.String("room_id", roomID), zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "room unavailable")
			return
		}
		v, err := rm.View(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "room unavailable")
			return
		}
		writeJSON(w, http.StatusOK, v.State)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
