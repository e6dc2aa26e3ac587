package till

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lntill/pkg/push"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Share pages are served from arbitrary origins (wallets, kiosks).
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// Websocket bridges the till's push topic to a browser connection. Clients
// only listen; inbound frames are drained to detect the close handshake.
func (s *Service) Websocket(c *gin.Context) {
	tillID := c.Param("till_id")

	if s.sub == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.String("till_id", tillID), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	messages, stop, err := s.sub.Subscribe(ctx, push.TillTopic(tillID))
	if err != nil {
		zap.L().Error("websocket subscribe failed", zap.String("till_id", tillID), zap.Error(err))
		return
	}
	defer stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
