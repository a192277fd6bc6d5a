package websocket

import (
	"context"
	"sync"

	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

// Hub управляет WebSocket клиентами и рассылает события о публикации отчетов.
// Реализует port.EventPublisher, поэтому подключается как приемник отчетов.
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для broadcast сообщений
	broadcast chan Message

	// Каналы регистрации и удаления клиентов
	register   chan *Client
	unregister chan *Client

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает клиентов до отмены ctx или Close
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Report feed hub started")
	defer h.disconnectAll()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Feed client registered", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Feed client unregistered", "total_clients", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Медленный клиент: отключаем, чтобы не блокировать остальных
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Feed client channel full, disconnected")
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			return
		case <-h.done:
			return
		}
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishEvent рассылает событие всем клиентам, subject становится типом сообщения
func (h *Hub) PublishEvent(_ context.Context, subject string, event interface{}) error {
	select {
	case h.broadcast <- Message{Type: subject, Data: event}:
	default:
		h.logger.Warn("Broadcast channel full, dropping event", "subject", subject)
	}
	return nil
}

// Close останавливает Run и отключает клиентов
func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
