package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	sockjs "github.com/igm/sockjs-go/v3/sockjs"

	"github.com/ycyw/support-chat-service/internal/config"
	"github.com/ycyw/support-chat-service/internal/hub"
	"github.com/ycyw/support-chat-service/internal/log"
	"github.com/ycyw/support-chat-service/internal/service"
)

// WSHandler exposes the realtime connection endpoint: a native WebSocket
// upgrade at /ws and a SockJS fallback under /ws/sockjs for environments
// without WebSocket support.
type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
	sockjs   http.Handler
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, srvCfg config.ServerConfig, wsCfg config.WebSocketConfig) *WSHandler {
	checkOrigin := originChecker(srvCfg.AllowedOrigins)

	handler := &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}

	opts := sockjs.DefaultOptions
	opts.CheckOrigin = checkOrigin
	handler.sockjs = sockjs.NewHandler("/ws/sockjs", opts, handler.handleSockJSSession)

	return handler
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.handleWebSocket)
	r.Any("/ws/sockjs/*path", gin.WrapH(h.sockjs))
}

func (h *WSHandler) handleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, newWSWire(conn, h.wsCfg), h.wsCfg.PingInterval)
	h.serve(client)
}

func (h *WSHandler) handleSockJSSession(session sockjs.Session) {
	client := hub.NewClient(session.ID(), h.hub, &sockjsWire{session: session}, h.wsCfg.PingInterval)
	h.serve(client)
}

// serve runs a session until its transport closes. The read loop is the
// only place frames for this session enter the system, so per-session
// processing order is the arrival order.
func (h *WSHandler) serve(client *hub.Client) {
	h.hub.Register(client)
	go client.WritePump()

	defer h.service.HandleDisconnect(sessionContext(client), client)
	client.ReadPump(h.handleFrame)
}
