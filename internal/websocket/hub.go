package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursegen-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var (
	errMissingCourse = errors.New("course_id is required")
	errUnauthorized  = errors.New("unauthorized")
)

// Hub streams course events to browsers. Each course with at least one open
// socket has a single Redis subscription whose messages are relayed verbatim.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[uuid.UUID]context.CancelFunc
	logger      zerolog.Logger
}

// NewHub creates a hub. An empty jwtSecret accepts every connection.
func NewHub(redisClient *redis.Client, jwtSecret string, logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		logger:      logger.With().Str("component", "websocket").Logger(),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.authorize(r)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, errMissingCourse) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.registerConnection(courseID, conn)

	go func() {
		defer h.unregisterConnection(courseID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// authorize resolves the course to stream and, when a secret is configured,
// checks the token query parameter.
func (h *Hub) authorize(r *http.Request) (uuid.UUID, error) {
	courseID, err := uuid.Parse(r.URL.Query().Get("course_id"))
	if err != nil {
		return uuid.Nil, errMissingCourse
	}

	if len(h.jwtSecret) == 0 {
		return courseID, nil
	}

	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return uuid.Nil, errUnauthorized
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errUnauthorized
	}

	return courseID, nil
}

func (h *Hub) registerConnection(courseID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[courseID] = append(h.connections[courseID], conn)

	if len(h.connections[courseID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[courseID] = cancel
		go h.subscribeToPubSub(ctx, courseID)
	}

	h.logger.Debug().
		Str("course_id", courseID.String()).
		Int("connections", len(h.connections[courseID])).
		Msg("websocket connected")
}

func (h *Hub) unregisterConnection(courseID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[courseID]
	for i, c := range conns {
		if c == conn {
			h.connections[courseID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[courseID]) == 0 {
		delete(h.connections, courseID)
		if cancel, ok := h.cancelFuncs[courseID]; ok {
			cancel()
			delete(h.cancelFuncs, courseID)
		}
	}

	h.logger.Debug().Str("course_id", courseID.String()).Msg("websocket disconnected")
}

func (h *Hub) subscribeToPubSub(ctx context.Context, courseID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, services.CourseChannel(courseID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(courseID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(courseID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[courseID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug().Err(err).Str("course_id", courseID.String()).Msg("websocket write failed")
		}
	}
}
