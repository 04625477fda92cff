package http

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/adapters/pubsub"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *gohttp.Request) bool { return true },
}

// StreamHandler relays the redis price and wallet-balance channels to
// websocket clients. Each connection gets its own subscription; a dead
// client tears down only its own relay.
type StreamHandler struct {
	pubsub subscriber
}

func NewStreamHandler(ps subscriber) *StreamHandler {
	return &StreamHandler{pubsub: ps}
}

func (h *StreamHandler) Root() string {
	return "/stream"
}

func (h *StreamHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.stream)
}

type streamEvent struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

func (h *StreamHandler) stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.pubsub.Subscribe(ctx, pubsub.PriceUpdatesChannel, pubsub.WalletUpdatesChannel)
	defer sub.Close()

	// Drain client frames so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			out, err := sonic.Marshal(streamEvent{
				Channel: msg.Channel,
				Payload: json.RawMessage(msg.Payload),
			})
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}
}
