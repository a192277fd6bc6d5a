package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
	// входящие кадры подписчика не читаются, нужен только разбор control-кадров
	feedReadLimit = 512
)

// Client - подписчик ленты отчетов. Лента односторонняя: клиент только получает сообщения.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan Message
	logger *logger.Logger
}

// NewClient создает подписчика для установленного соединения
func NewClient(hub *Hub, conn *websocket.Conn, logger *logger.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan Message, 64),
		logger: logger,
	}
}

// Serve доставляет сообщения хаба, пока хаб не отключит клиента или клиент не уйдет
func (c *Client) Serve() {
	gone := make(chan struct{})
	go c.watchPeer(gone)

	ping := time.NewTicker(feedPingPeriod)
	defer func() {
		ping.Stop()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				closeFrame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = c.conn.WriteControl(websocket.CloseMessage, closeFrame, time.Now().Add(feedWriteWait))
				return
			}
			if err := c.deliver(message); err != nil {
				c.logger.Warn("Feed delivery failed", "type", message.Type, "error", err.Error())
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

func (c *Client) deliver(message Message) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(message)
}

// watchPeer обрабатывает pong и close кадры и закрывает gone, когда клиент пропал
func (c *Client) watchPeer(gone chan<- struct{}) {
	defer close(gone)

	c.conn.SetReadLimit(feedReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Feed client went away", "error", err.Error())
			}
			return
		}
	}
}
