// Package notificationdelivery manages the websocket delivery of ledger
// notifications.
//
// Clients connect with a pre-obtained access token passed as a query
// parameter, receive one connection-confirmation event, and are then pushed
// notifications in commit order until they disconnect. The channel is
// server-to-client only.
package notificationdelivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/ledgerbank/ledger-api/internal/notificationbus"
	"github.com/ledgerbank/ledger-api/pkg/tokenpkg"
	"github.com/ledgerbank/ledger-api/pkg/web"
)

const writeTimeout = 10 * time.Second

// Handler facilitates notification delivery layer logic.
type Handler struct {
	bus        *notificationbus.Bus
	tokenMaker tokenpkg.Maker
	upgrader   websocket.Upgrader
}

// NewHandler returns notification handler.
func NewHandler(bus *notificationbus.Bus, tokenMaker tokenpkg.Maker) *Handler {
	return &Handler{
		bus:        bus,
		tokenMaker: tokenMaker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Subscribe handles the websocket request to join the caller's
// notification topic.
func (h *Handler) Subscribe(gctx *gin.Context) {
	l := zerolog.Ctx(gctx.Request.Context())

	token := gctx.Query("token")
	if token == "" {
		err := errors.New("token query parameter is not provided")
		gctx.JSON(http.StatusUnauthorized, web.Error(err))

		return
	}

	payload, err := h.tokenMaker.VerifyToken(token)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusUnauthorized, web.Error(err))

		return
	}

	conn, err := h.upgrader.Upgrade(gctx.Writer, gctx.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		l.Info().Err(err).Send()
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(payload.Username)
	defer h.bus.Unsubscribe(sub)

	confirmation := domain.Notification{
		Message:   "connected",
		Kind:      domain.NotificationInfo,
		Timestamp: time.Now(),
	}

	if err := h.write(conn, confirmation); err != nil {
		l.Info().Err(err).Send()
		return
	}

	// The client sends no meaningful payload; the read loop only detects
	// disconnects.
	disconnected := make(chan struct{})

	go func() {
		defer close(disconnected)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case n, ok := <-sub.C():
			if !ok {
				return
			}

			if err := h.write(conn, n); err != nil {
				l.Info().Err(err).Send()
				return
			}
		case <-disconnected:
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, n domain.Notification) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return conn.WriteJSON(n)
}
