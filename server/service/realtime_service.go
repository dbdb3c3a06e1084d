package service

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	commonlog "inspection_server/server/common/log"
)

// RealtimeService streams domain events to websocket clients by relaying
// the Redis updates channel. Clients are read-only; inbound frames are
// consumed solely to detect a closed connection.
type RealtimeService struct {
	rdb *redis.Client
}

func NewRealtimeService(rdb *redis.Client) *RealtimeService {
	return &RealtimeService{rdb: rdb}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *RealtimeService) HandleWS(c *gin.Context) {
	if s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "updates stream is not configured"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pubsub := s.rdb.Subscribe(ctx, UpdatesChannel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				commonlog.Debugf("drop websocket subscriber: %v", err)
				return
			}
		}
	}
}
