package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Krimson/ecg-glove/internal/record"
	"github.com/Krimson/ecg-glove/pkg/models"
)

// downsampleFactor прореживает волновые формы перед отправкой на фронтенд:
// для отрисовки 500 Гц избыточны
const downsampleFactor = 2

// Hub управляет WebSocket соединениями
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для регистрации клиентов
	register chan *Client

	// Канал для отмены регистрации клиентов
	unregister chan *Client

	// Канал исходящих сообщений
	broadcast chan []byte

	mu sync.RWMutex
}

// Client представляет WebSocket клиента
type Client struct {
	hub *Hub

	// WebSocket соединение
	conn *websocket.Conn

	// Буферизованный канал исходящих сообщений
	send chan []byte
}

// AnalysisMessage представляет завершенный анализ для отправки на фронтенд
type AnalysisMessage struct {
	Message   string                              `json:"message"`
	RecordID  string                              `json:"record_id"`
	Status    int                                 `json:"status"`
	Results   *models.ResultVector                `json:"results,omitempty"`
	Waveforms map[models.Lead][]float64           `json:"waveforms,omitempty"`
	Beats     map[models.Lead][]models.BeatMarker `json:"beats,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене следует проверять домен
		return true
	},
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
	}
}

// Run запускает Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[WEBSOCKET] Client registered: %p", client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[WEBSOCKET] Client unregistered: %p", client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastAnalysis отправляет завершенный анализ всем клиентам
func (h *Hub) BroadcastAnalysis(rec *record.Record, output *models.AnalysisOutput) {
	msg := &AnalysisMessage{
		Message:   "Done",
		RecordID:  rec.ID,
		Status:    output.Status,
		Results:   output.Results,
		Waveforms: downsampleLeads(output.Waveforms),
		Beats:     output.Beats,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal analysis message: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("[WARN] Broadcast channel full, dropping message")
	}
}

// downsampleLeads прореживает все отведения с постоянным шагом
func downsampleLeads(set models.LeadSet) map[models.Lead][]float64 {
	out := make(map[models.Lead][]float64, len(set))
	for lead, samples := range set {
		ds := make([]float64, 0, len(samples)/downsampleFactor+1)
		for i := 0; i < len(samples); i += downsampleFactor {
			ds = append(ds, samples[i])
		}
		out[lead] = ds
	}
	return out
}

// HandleWebSocket обрабатывает WebSocket соединения
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	// Запускаем горутины для клиента
	go client.writePump()
	go client.readPump()
}

// readPump обрабатывает входящие сообщения от клиента
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ERROR] WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("[ERROR] Failed to write message: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
