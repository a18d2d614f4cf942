package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistorySize = 20
	// brochures whose recent events are kept for replay
	historyRooms = 256
)

// Hub fans change events out to websocket subscribers, one room per
// brochure. Recent events are kept per brochure in an LRU so new
// subscribers can replay them; rooms only exist while they have
// subscribers.
type Hub struct {
	mu          sync.Mutex
	rooms       map[string]map[*websocket.Conn]struct{}
	history     *lru.Cache[string, []Event]
	historySize int
	log         *logrus.Entry
}

type Stats struct {
	Rooms   int `json:"rooms"`
	Clients int `json:"clients"`
}

func NewHub(historySize int, log *logrus.Entry) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	if log == nil {
		log = logrus.WithField("component", "live")
	}
	// lru.New only fails for a non-positive size
	history, err := lru.New[string, []Event](historyRooms)
	if err != nil {
		panic(err)
	}
	return &Hub{
		rooms:       make(map[string]map[*websocket.Conn]struct{}),
		history:     history,
		historySize: historySize,
		log:         log,
	}
}

// Join subscribes ws to a brochure's room after replaying the recent
// history. Writes happen under the hub lock so they never interleave with
// a concurrent Publish.
func (h *Hub) Join(brochure string, ws *websocket.Conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	recent, _ := h.history.Get(brochure)
	_ = ws.WriteJSON(map[string]string{"type": "welcome", "brochureName": brochure})
	for _, ev := range recent {
		_ = ws.WriteJSON(ev)
	}

	conns, ok := h.rooms[brochure]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.rooms[brochure] = conns
	}
	conns[ws] = struct{}{}
	return len(recent)
}

func (h *Hub) Leave(brochure string, ws *websocket.Conn) {
	h.mu.Lock()
	if conns, ok := h.rooms[brochure]; ok {
		delete(conns, ws)
		if len(conns) == 0 {
			delete(h.rooms, brochure)
		}
	}
	h.mu.Unlock()

	_ = ws.Close()
}

func (h *Hub) Publish(ev Event) {
	if ev.BrochureName == "" {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Warn("encode live event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if ev.Type == BrochureDeleted {
		h.history.Remove(ev.BrochureName)
	} else {
		recent, _ := h.history.Get(ev.BrochureName)
		recent = append(recent, ev)
		if len(recent) > h.historySize {
			recent = append([]Event(nil), recent[len(recent)-h.historySize:]...)
		}
		h.history.Add(ev.BrochureName, recent)
	}

	conns, ok := h.rooms[ev.BrochureName]
	for ws := range conns {
		_ = ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = ws.Close()
			delete(conns, ws)
		}
	}
	if ok && len(conns) == 0 {
		delete(h.rooms, ev.BrochureName)
	}
}

func (h *Hub) History(brochure string) []Event {
	recent, ok := h.history.Peek(brochure)
	if !ok {
		return nil
	}
	return append([]Event(nil), recent...)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Stats{Rooms: len(h.rooms)}
	for _, conns := range h.rooms {
		s.Clients += len(conns)
	}
	return s
}
