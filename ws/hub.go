package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	Clients       map[string]map[*websocket.Conn]*Client // theo từng lessonID
	GlobalClients map[*websocket.Conn]*Client            // cho broadcast chung
	Mutex         sync.RWMutex
}

var H = Hub{
	Clients:       make(map[string]map[*websocket.Conn]*Client),
	GlobalClients: make(map[*websocket.Conn]*Client),
}

// Trạng thái xử lý của một bài học (upload file, reconcile video...)
type LessonStatusUpdate struct {
	LessonID string `json:"lesson_id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Register theo lessonID riêng
func (h *Hub) Register(lessonID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if _, ok := h.Clients[lessonID]; !ok {
		h.Clients[lessonID] = make(map[*websocket.Conn]*Client)
	}

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Clients[lessonID][conn] = client

	// Đọc do handler đảm nhiệm; hub chỉ lo ghi.
	go h.writePump(client)
}

// Register global cho trang danh sách
func (h *Hub) RegisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.GlobalClients[conn] = client

	go h.writePump(client)
}

// Broadcast theo lessonID
func (h *Hub) Broadcast(lessonID string, data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	if clients, ok := h.Clients[lessonID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// Broadcast toàn bộ global clients (danh sách)
func (h *Hub) BroadcastGlobal(data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.GlobalClients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	perLesson := 0
	for _, clients := range h.Clients {
		perLesson += len(clients)
	}
	return map[string]int{
		"lesson_clients": perLesson,
		"global_clients": len(h.GlobalClients),
	}
}

// SendLessonStatusUpdate gửi trạng thái xử lý của một bài học
func SendLessonStatusUpdate(lessonID, status, errorMsg string) {
	update := LessonStatusUpdate{
		LessonID: lessonID,
		Status:   status,
		Error:    errorMsg,
	}
	data, err := json.Marshal(update)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.Broadcast(lessonID, data)
}

// BroadcastLessonListChanged báo các trang danh sách reload
func BroadcastLessonListChanged() {
	data := []byte(`{"type": "lesson_list_changed"}`)
	H.BroadcastGlobal(data)
}

// BroadcastRaw dùng cho audit fan-out từ service layer.
func BroadcastRaw(data []byte) {
	H.BroadcastGlobal(data)
}

// Unregister client theo lessonID
func (h *Hub) Unregister(lessonID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if clients, ok := h.Clients[lessonID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.Clients, lessonID)
		}
	}
}

// Unregister global client
func (h *Hub) UnregisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.GlobalClients[conn]; ok {
		close(client.Send)
		delete(h.GlobalClients, conn)
	}
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
