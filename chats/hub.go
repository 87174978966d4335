package chats

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one open assistant session.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte

	closed    chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		Conn:   conn,
		Send:   make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// Hub tracks live sessions so shutdown can close them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	mu    sync.Mutex
	count int
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.setCount(len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				c.close()
			}
			h.setCount(len(h.clients))

		case <-h.stop:
			for c := range h.clients {
				c.close()
			}
			h.clients = nil
			h.setCount(0)
			return
		}
	}
}

// Register adds c. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// Stop closes every session and waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Len is the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}
