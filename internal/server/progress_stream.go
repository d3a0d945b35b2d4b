package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/saccr-engine/internal/events"
)

// ProgressStreamHandler upgrades a request to a websocket connection and
// forwards every events.Event published — run-started, per-diagnostic, and
// run-completed/failed — as a JSON message, closing the connection after
// the first run-completed or run-failed event. Adapted from the connection-upgrade half of the teacher's
// nhooyr.io/websocket usage (internal/clients/tradernet/websocket_client.go
// only dials outbound; this is the server-accept side of the same library,
// used here in place of the teacher's own SSE-based events stream because a
// websocket lets a caller both watch progress and, in a future revision,
// push run parameters over the same connection).
type ProgressStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewProgressStreamHandler builds a handler that relays bus's events.
func NewProgressStreamHandler(bus *events.Bus, log zerolog.Logger) *ProgressStreamHandler {
	return &ProgressStreamHandler{bus: bus, log: log.With().Str("component", "progress_stream").Logger()}
}

func (h *ProgressStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to accept websocket connection")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	msgs := make(chan events.Event, 32)
	for _, t := range []events.EventType{events.RunStarted, events.DiagnosticRaised, events.RunCompleted, events.RunFailed} {
		h.bus.Subscribe(t, func(ev events.Event) {
			select {
			case msgs <- ev:
			default:
				h.log.Warn().Msg("progress stream backpressure, dropping event")
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client disconnected")
			return
		case ev := <-msgs:
			writeCtx, writeCancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			writeCancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("progress stream write failed, closing")
				return
			}
			if ev.Type == events.RunCompleted || ev.Type == events.RunFailed {
				conn.Close(websocket.StatusNormalClosure, "run finished")
				return
			}
		}
	}
}
