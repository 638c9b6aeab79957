package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-grabber/internal/broadcast"
)

const writeTimeout = 10 * time.Second

// progressHandler upgrades to a WebSocket and relays every progress_update event of the progress group to it, until
// either side goes away.
type progressHandler struct {
	layer    *broadcast.Layer
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func newProgressHandler(cfg *config, logger *zap.Logger) *progressHandler {
	return &progressHandler{
		layer: cfg.layer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logger.Named("progress"),
	}
}

func (h *progressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		h.log.Debug("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	member, err := h.layer.GroupAddTypes(broadcast.ProgressGroup, 0, broadcast.ProgressUpdate)
	if err != nil {
		h.log.Warn("failed to join progress group", zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		return
	}

	// A hijacked connection doesn't cancel the request context, so watch for the client going away ourselves
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	consumer := broadcast.NewConsumer().Handle(broadcast.ProgressUpdate, func(ctx context.Context, e broadcast.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(&e)
	})
	h.log.Debug("client connected", zap.String("remote", r.RemoteAddr))
	if err := consumer.Run(ctx, member); err != nil && err != context.Canceled {
		h.log.Debug("client dropped", zap.Error(err))
	}
	h.log.Debug("client disconnected", zap.String("remote", r.RemoteAddr))
}
