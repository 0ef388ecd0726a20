// Package stream broadcasts a running simulation to websocket clients as
// JSON messages, one per frame and one per grab event.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/sim"
	"github.com/san-kum/grabsim/internal/store"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 256
	writeTimeout = 5 * time.Second
)

const (
	TypeFrame = "frame"
	TypeEvent = "event"
	TypeDone  = "done"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is what clients receive. Frame, Event or Release and Metrics are
// set according to Type.
type Message struct {
	Type    string             `json:"type"`
	Frame   *store.FrameData   `json:"frame,omitempty"`
	Event   *store.EventRecord `json:"event,omitempty"`
	Release *store.ReleaseInfo `json:"release,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected client. A client that falls
// sendBuffer messages behind is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *zap.Logger
}

var _ sim.Observer = (*Hub)(nil)

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))

	go c.writeLoop()

	// Clients never send anything; reading only notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.logger.Info("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn("dropping slow client", zap.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

func (h *Hub) OnFrame(s sim.Sample) {
	f := store.NewFrameData(s)
	h.broadcast(Message{Type: TypeFrame, Frame: &f})
}

func (h *Hub) OnEvent(ev grab.Event) {
	rec := store.NewEventRecord(ev)
	h.broadcast(Message{Type: TypeEvent, Event: &rec})
}

// Done tells clients a run has ended.
func (h *Hub) Done(res *sim.Result) {
	msg := Message{Type: TypeDone, Metrics: res.Metrics}
	if r := res.Release; r != nil {
		msg.Release = &store.ReleaseInfo{Time: r.Time, Velocity: r.Velocity, AngularVelocity: r.AngularVelocity}
	}
	h.broadcast(msg)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Play runs simulators from factory at wall-clock pace, one host frame per
// cfg.Dt, broadcasting as it goes. With loop set a finished run starts over
// until ctx is done.
func (h *Hub) Play(ctx context.Context, cfg sim.Config, factory func() (*sim.Simulator, error), loop bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ticker := time.NewTicker(time.Duration(cfg.Dt * float64(time.Second)))
	defer ticker.Stop()

	for {
		s, err := factory()
		if err != nil {
			return err
		}
		s.Grabbable().AddObserver(h.OnEvent)
		s.AddObserver(h)

		st, err := s.Start(cfg)
		if err != nil {
			return err
		}
		for !st.Done() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if _, err := st.Step(); err != nil {
				h.logger.Warn("run stopped", zap.Error(err))
				break
			}
		}

		res := st.Result()
		h.Done(res)
		h.logger.Info("run finished", zap.Int("frames", res.Frames), zap.Int("clients", h.Clients()))
		if !loop {
			return nil
		}
	}
}
