package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/logger"
)

// Event сообщение, уходящее подключённым администраторам.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	At    time.Time   `json:"at"`
}

// Hub держит подключения админки и рассылает им события жизненного
// цикла заявок. Единственный владелец карты клиентов — горутина Run.
type Hub struct {
	ctx        context.Context
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
}

// NewHub создаёт новый hub.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		ctx:        ctx,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
	}
}

// Run обслуживает hub до отмены контекста.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			for client := range h.clients {
				client.close()
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Медленный клиент отключается, hub не блокируется.
					delete(h.clients, client)
					client.close()
				}
			}
		}
	}
}

// Broadcast ставит событие в очередь рассылки. Неблокирующий вызов.
func (h *Hub) Broadcast(event string, data interface{}) {
	select {
	case h.broadcast <- Event{Event: event, Data: data, At: time.Now()}:
	default:
		if logger.Log != nil {
			logger.Log.Warn("ws: broadcast queue overflow, event dropped")
		}
	}
}
