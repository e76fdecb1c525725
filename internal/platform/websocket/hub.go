// Package websocket mantiene las conexiones de la vista en vivo y les reenvía mensajes.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"oncology-dispatch/internal/platform/logger"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message es lo que recibe cada cliente.
type Message struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Conn abstrae la conexión para poder probar sin red.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type Client struct {
	ID   string
	Send chan []byte
	conn Conn
}

// Hub lleva el registro de clientes conectados.
type Hub struct {
	mu  sync.RWMutex
	all map[*Client]struct{}

	// order serializa el hello de un cliente nuevo con los broadcasts
	order    sync.Mutex
	log      logger.Logger
	upgrader gorillawebsocket.Upgrader
	onCount  func(n int)
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		all: make(map[*Client]struct{}),
		log: log,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// el login gate ya validó el token; el front puede servirse desde otro origen
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// OnCount registra fn para recibir la cantidad de clientes tras cada alta o baja.
// Se configura antes de servir.
func (h *Hub) OnCount(fn func(n int)) {
	h.onCount = fn
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.all[c] = struct{}{}
	n := len(h.all)
	h.mu.Unlock()
	h.notify(n)
}

// Unregister saca al cliente y cierra su canal Send.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.all[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.all, c)
	close(c.Send)
	n := len(h.all)
	h.mu.Unlock()
	h.notify(n)
}

func (h *Hub) notify(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// Broadcast envía msg a todos los clientes; devuelve a cuántos llegó.
// Un cliente con el buffer lleno pierde el mensaje.
func (h *Hub) Broadcast(msg Message) int {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("websocket marshal failed", map[string]any{"err": err.Error()})
		return 0
	}

	h.order.Lock()
	defer h.order.Unlock()
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.all {
		select {
		case c.Send <- data:
			sent++
		default:
		}
	}
	return sent
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// Close desconecta a todos los clientes (apagado del servidor).
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.all {
		delete(h.all, c)
		close(c.Send)
	}
	h.mu.Unlock()
	h.notify(0)
}

// Handler registra el cliente, le encola el hello y después hace el upgrade.
// Ningún broadcast se intercala entre el alta y el hello, así que el último
// mensaje que recibe el cliente nunca es más viejo que su hello.
func (h *Hub) Handler(hello func(ctx context.Context) (Message, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := &Client{
			ID:   uuid.NewString(),
			Send: make(chan []byte, sendBuffer),
		}

		h.order.Lock()
		h.Register(c)
		first, err := hello(r.Context())
		if err != nil {
			h.order.Unlock()
			h.Unregister(c)
			http.Error(w, "snapshot unavailable", http.StatusBadGateway)
			return
		}
		if first.Timestamp.IsZero() {
			first.Timestamp = time.Now().UTC()
		}
		if data, err := json.Marshal(first); err == nil {
			h.enqueue(c, data)
		}
		h.order.Unlock()

		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade ya respondió al cliente
			h.Unregister(c)
			h.log.Warn("websocket upgrade failed", map[string]any{"err": err.Error()})
			return
		}
		c.conn = ws
		h.log.Debug("websocket connected", map[string]any{"client_id": c.ID})

		go h.writePump(c)
		go h.readPump(c)
	}
}

// enqueue entrega data solo si el cliente sigue registrado; Close pudo cerrar Send.
func (h *Hub) enqueue(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.all[c]; !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// readPump descarta lo que envía el cliente; sirve para detectar el cierre.
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.Unregister(c)
		_ = c.conn.Close()
		h.log.Debug("websocket disconnected", map[string]any{"client_id": c.ID})
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(gorillawebsocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(gorillawebsocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
