package orders

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"solemart/middleware"
	"solemart/models"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// The order feed pushes live events to connected admin dashboards.

type feedEvent struct {
	Action  string       `json:"action"` // "order-created", "order-paid"
	Order   models.Order `json:"order"`
	Emitted int64        `json:"emitted"` // unix seconds
}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.Send <- data:
				default:
					close(c.Send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) Broadcast(action string, order models.Order) {
	ev := feedEvent{Action: action, Order: order, Emitted: time.Now().Unix()}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("feed: marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

var (
	feedHub *Hub
	feedMu  sync.RWMutex
)

// StartFeed is called once from main. Notify helpers are no-ops before it runs.
func StartFeed() *Hub {
	hub := NewHub()
	go hub.Run()
	feedMu.Lock()
	feedHub = hub
	feedMu.Unlock()
	return hub
}

func NotifyOrderCreated(order models.Order) { notify("order-created", order) }
func NotifyOrderPaid(order models.Order)    { notify("order-paid", order) }

func notify(action string, order models.Order) {
	feedMu.RLock()
	hub := feedHub
	feedMu.RUnlock()
	if hub == nil {
		return
	}
	hub.Broadcast(action, order)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// FeedHandler upgrades an admin connection onto the hub. Browsers cannot set
// headers on websocket dials, so the token rides the cookie or a query param.
func FeedHandler(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			if c, err := r.Cookie("token"); err == nil {
				tokenString = c.Value
			}
		}
		claims, err := middleware.ValidateJWT(tokenString)
		if err != nil || claims.Role != "admin" {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("feed upgrade:", err)
			return
		}

		client := &Client{Conn: conn, Send: make(chan []byte, 64)}
		hub.register <- client
		go writePump(client)
		go readPump(client, hub)
	}
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// readPump only watches for the peer going away; the feed is one-directional.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}
