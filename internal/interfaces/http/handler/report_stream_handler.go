package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	wsInfra "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/notification/websocket"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

// ReportStreamHandler подключает клиентов к ленте опубликованных отчетов
type ReportStreamHandler struct {
	hub            *wsInfra.Hub
	logger         *logger.Logger
	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader
}

// NewReportStreamHandler создает handler. Аутентификация выполняется middleware роутера.
func NewReportStreamHandler(hub *wsInfra.Hub, allowedOrigins []string, logger *logger.Logger) *ReportStreamHandler {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	handler := &ReportStreamHandler{
		hub:            hub,
		logger:         logger,
		allowedOrigins: originMap,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     handler.checkOrigin,
	}

	return handler
}

func (h *ReportStreamHandler) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Не браузерные клиенты не присылают Origin
		return true
	}
	if len(h.allowedOrigins) == 0 {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	normalized := parsed.Scheme + "://" + parsed.Host
	if _, ok := h.allowedOrigins[normalized]; ok {
		return true
	}
	if _, ok := h.allowedOrigins["*"]; ok {
		return true
	}

	return false
}

// HandleConnection обрабатывает GET /api/v1/reports/stream
func (h *ReportStreamHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err.Error(), "remote_addr", r.RemoteAddr)
		return
	}

	client := wsInfra.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.Serve()
}
