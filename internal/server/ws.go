package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
)

const (
	writeWait      = 5 * time.Second
	clientBacklog  = 32
	maxFrameSocket = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is the envelope sent to event stream clients.
type Message struct {
	Type         string                 `json:"type"`
	ClientID     string                 `json:"client_id,omitempty"`
	Notification *dispatch.Notification `json:"notification,omitempty"`
	Event        *gesture.Event         `json:"event,omitempty"`
}

// Broadcaster is a dispatch sink that fans notifications out to WebSocket
// clients on /api/events. A client that falls behind loses messages rather
// than slowing the frame loop.
type Broadcaster struct {
	log     *zap.Logger
	clients map[string]*eventClient
	mu      sync.RWMutex

	onConnect func(delta int)
}

type eventClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewBroadcaster creates a Broadcaster. onConnect, when set, is called with
// +1 and -1 as clients come and go.
func NewBroadcaster(log *zap.Logger, onConnect func(delta int)) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		log:       log.Named("broadcast"),
		clients:   make(map[string]*eventClient),
		onConnect: onConnect,
	}
}

// ServeHTTP upgrades the request and streams messages until the client leaves.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &eventClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientBacklog),
	}
	hello, _ := json.Marshal(Message{Type: "hello", ClientID: c.id})
	c.send <- hello

	b.add(c)
	defer b.remove(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writeLoop()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.mu.Lock()
	if _, ok := b.clients[c.id]; ok {
		delete(b.clients, c.id)
		close(c.send)
	}
	b.mu.Unlock()
	<-done
	conn.Close()
}

func (c *eventClient) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (b *Broadcaster) add(c *eventClient) {
	b.mu.Lock()
	b.clients[c.id] = c
	b.mu.Unlock()

	b.log.Info("event client connected", zap.String("client", c.id))
	if b.onConnect != nil {
		b.onConnect(1)
	}
}

func (b *Broadcaster) remove(c *eventClient) {
	b.log.Info("event client disconnected", zap.String("client", c.id))
	if b.onConnect != nil {
		b.onConnect(-1)
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Notify implements dispatch.Sink.
func (b *Broadcaster) Notify(_ context.Context, n dispatch.Notification) error {
	return b.broadcast(Message{Type: "notification", Notification: &n})
}

// Observe implements dispatch.Observer.
func (b *Broadcaster) Observe(_ context.Context, ev gesture.Event) {
	if err := b.broadcast(Message{Type: "observation", Event: &ev}); err != nil {
		b.log.Debug("failed to broadcast observation", zap.Error(err))
	}
}

func (b *Broadcaster) broadcast(m Message) error {
	msg, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.clients {
		select {
		case c.send <- msg:
		default:
			b.log.Warn("event client lagging, dropping message", zap.String("client", c.id))
		}
	}
	return nil
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.clients {
		delete(b.clients, id)
		close(c.send)
		c.conn.Close()
	}
}

// FrameSocket ingests landmark frames over a WebSocket, one frame per text
// message. Each frame that produces events is answered with
// {"events":[...]}; undecodable frames are answered with {"error":"..."}.
type FrameSocket struct {
	processor     api.FrameProcessor
	log           *zap.Logger
	onDecodeError func(error)
}

// NewFrameSocket creates a FrameSocket.
func NewFrameSocket(p api.FrameProcessor, log *zap.Logger, onDecodeError func(error)) *FrameSocket {
	if log == nil {
		log = zap.NewNop()
	}
	return &FrameSocket{processor: p, log: log.Named("ingest"), onDecodeError: onDecodeError}
}

type frameReply struct {
	Events []gesture.Event `json:"events,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ServeHTTP upgrades the request and processes frames until the client leaves.
func (s *FrameSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSocket)

	id := uuid.NewString()
	s.log.Info("frame source connected", zap.String("client", id))
	defer s.log.Info("frame source disconnected", zap.String("client", id))

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		var reply frameReply
		frame, err := detector.DecodeFrame(data)
		if err != nil {
			if s.onDecodeError != nil {
				s.onDecodeError(err)
			}
			reply.Error = err.Error()
		} else {
			reply.Events = s.processor.ProcessFrame(r.Context(), frame)
			if len(reply.Events) == 0 {
				continue
			}
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}
