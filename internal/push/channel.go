package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names the backend delivers or the client emits.
const (
	EventJoinOrderRoom     = "join_order_room"
	EventJoinUserRoom      = "join_user_room"
	EventOrderStatusUpdate = "order_status_update"
	EventNewOrder          = "new_order"
	EventOrderUpdated      = "order_updated"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// message is the wire envelope: an event name plus its JSON payload.
type message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives the raw payload of one inbound event. Handlers run on
// the read loop goroutine, so delivery order is the transport's order.
type Handler func(data json.RawMessage)

var ErrNotConnected = errors.New("push channel not connected")

// Channel is the client end of the push connection. Connect is once per
// process lifetime; views attach and detach handlers with On/Off but never
// close the connection, so notifications keep flowing across views.
type Channel struct {
	url string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	handlers  map[string]map[int]Handler
	nextID    int
	send      chan message
	done      chan struct{}
}

func NewChannel(url string) *Channel {
	return &Channel{
		url:      url,
		handlers: make(map[string]map[int]Handler),
	}
}

// Connect dials the push server. Calling it again while connected is a
// no-op, which lets every view entry re-assert the connection cheaply.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("push channel dial failed: %w", err)
	}

	c.conn = conn
	c.connected = true
	c.send = make(chan message, sendBuffer)
	c.done = make(chan struct{})

	go c.writePump(conn, c.send, c.done)
	go c.readPump(conn)
	return nil
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Emit sends an event to the server, e.g. a room join.
func (c *Channel) Emit(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	select {
	case c.send <- message{Event: event, Data: payload}:
		return nil
	default:
		return fmt.Errorf("push channel send buffer full for %s", event)
	}
}

// On registers a handler for an event and returns a subscription id for Off.
func (c *Channel) On(event string, h Handler) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	c.handlers[event][c.nextID] = h
	return c.nextID
}

// Off detaches a handler. The connection stays up.
func (c *Channel) Off(event string, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers[event], id)
}

// Close tears the connection down. Only the process exit path calls this.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Channel) closeLocked() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	close(c.done)
	return c.conn.Close()
}

func (c *Channel) writePump(conn *websocket.Conn, send <-chan message, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("push channel write error: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (c *Channel) readPump(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.closeLocked()
		c.mu.Unlock()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("push channel read error: %v", err)
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Channel) dispatch(msg message) {
	c.mu.Lock()
	hs := make([]Handler, 0, len(c.handlers[msg.Event]))
	for _, h := range c.handlers[msg.Event] {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	// Invoked on the read goroutine so events land in delivery order.
	for _, h := range hs {
		h(msg.Data)
	}
}
