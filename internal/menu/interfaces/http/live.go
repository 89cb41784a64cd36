package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	"github.com/wyfcoding/littlelemon/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	maxReadBytes = 512
)

// LiveMessage is one frame of a live view: the full snapshot for its filter.
type LiveMessage struct {
	Filter  domain.Filter      `json:"filter"`
	Entries []domain.MenuEntry `json:"entries"`
	Count   int                `json:"count"`
	SentAt  time.Time          `json:"sent_at"`
}

// Live upgrades to a WebSocket and streams snapshots until either side goes away.
func (h *MenuHandler) Live(c *gin.Context) {
	filter := filterFrom(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		logger.Warn(c.Request.Context(), "live view upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.query.Observe(ctx, filter)
	if err != nil {
		logger.Error(ctx, "failed to open live view", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "live view unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Close()

	// clients only send control frames; a read error means they left
	conn.SetReadLimit(maxReadBytes)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	logger.Info(ctx, "live view opened", "category", filter.Category, "search", filter.Search)
	for {
		select {
		case snapshot, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				logger.Info(ctx, "live view closed")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			msg := LiveMessage{Filter: filter, Entries: snapshot, Count: len(snapshot), SentAt: time.Now().UTC()}
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn(ctx, "live view write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
