// Package realtime pushes notifications to browsers over websockets. A
// connection can join project groups and is addressable by its user id.
package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second

	msgJoinProject  = "JoinProject"
	msgLeaveProject = "LeaveProject"
	msgReceive      = "ReceiveNotification"
)

// ClientMessage is what browsers send on the hub.
type ClientMessage struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId"`
}

// ServerMessage is what the hub pushes.
type ServerMessage struct {
	Type string       `json:"type"`
	Data Notification `json:"data"`
}

type Notification struct {
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectGroup names the group of connections watching a project.
func ProjectGroup(projectID string) string {
	return "project_" + projectID
}

type client struct {
	userID string
	send   chan ServerMessage
	groups map[string]struct{}
}

// Hub tracks live connections on this instance.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	groups  map[string]map[*client]struct{}

	originPatterns []string
	logger         *zap.Logger
}

// NewHub accepts upgrades from the given CORS origins. Origins may be full
// URLs; only their host part is matched.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	patterns := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}
	return &Hub{
		clients:        make(map[*client]struct{}),
		groups:         make(map[string]map[*client]struct{}),
		originPatterns: patterns,
		logger:         logger.Named("hub"),
	}
}

// Handle upgrades an authenticated request and serves it until either side
// closes.
func (h *Hub) Handle(c *gin.Context) {
	user := auth.FromContext(c.Request.Context())
	if !user.IsAuthenticated() {
		_ = c.Error(&apperr.UnauthorizedError{Message: "authentication required"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		userID: user.IdentityUserID(),
		send:   make(chan ServerMessage, sendBuffer),
		groups: make(map[string]struct{}),
	}
	h.add(cl)
	h.logger.Info("User "+cl.userID+" connected to project hub", zap.String("user_id", cl.userID))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer func() {
		cancel()
		h.remove(cl)
		h.logger.Info("User "+cl.userID+" disconnected from project hub", zap.String("user_id", cl.userID))
	}()

	go h.readLoop(ctx, cancel, conn, cl)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case msg := <-cl.send:
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, msg)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusInternalError, "write_failed")
				return
			}
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, cl *client) {
	defer cancel()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				h.logger.Debug("hub read ended", zap.String("user_id", cl.userID), zap.Error(err))
			}
			return
		}
		h.dispatch(cl, msg)
	}
}

func (h *Hub) dispatch(cl *client, msg ClientMessage) {
	projectID := strings.TrimSpace(msg.ProjectID)
	if projectID == "" {
		return
	}
	switch msg.Type {
	case msgJoinProject:
		h.join(cl, ProjectGroup(projectID))
		h.logger.Info("User "+cl.userID+" joined project "+projectID,
			zap.String("user_id", cl.userID), zap.String("project_id", projectID))
	case msgLeaveProject:
		h.leave(cl, ProjectGroup(projectID))
		h.logger.Info("User "+cl.userID+" left project "+projectID,
			zap.String("user_id", cl.userID), zap.String("project_id", projectID))
	default:
		h.logger.Debug("ignoring hub message", zap.String("type", msg.Type))
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, cl)
	for g := range cl.groups {
		h.dropFromGroup(cl, g)
	}
}

func (h *Hub) join(cl *client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*client]struct{})
		h.groups[group] = members
	}
	members[cl] = struct{}{}
	cl.groups[group] = struct{}{}
}

func (h *Hub) leave(cl *client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromGroup(cl, group)
}

// dropFromGroup requires h.mu.
func (h *Hub) dropFromGroup(cl *client, group string) {
	delete(cl.groups, group)
	if members, ok := h.groups[group]; ok {
		delete(members, cl)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// Deliver pushes e to the matching local connections. Slow clients whose
// buffer is full miss the message.
func (h *Hub) Deliver(e Envelope) int {
	msg := ServerMessage{Type: msgReceive, Data: e.Notification}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	push := func(cl *client) {
		select {
		case cl.send <- msg:
			delivered++
		default:
			h.logger.Warn("dropping notification for slow client", zap.String("user_id", cl.userID))
		}
	}

	switch e.Target {
	case TargetAll:
		for cl := range h.clients {
			push(cl)
		}
	case TargetGroup:
		for cl := range h.groups[e.Key] {
			push(cl)
		}
	case TargetUser:
		for cl := range h.clients {
			if cl.userID == e.Key {
				push(cl)
			}
		}
	}
	return delivered
}

// Connections reports the number of live connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register mounts the hub under /hubs.
func (h *Hub) Register(rg *gin.RouterGroup) {
	rg.GET("/project", h.Handle)
}
