package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/wtd"
)

// AllDrivers registers a connection for every driver's notices (managers).
const AllDrivers uint = 0

const writeWait = 5 * time.Second

// Hub pushes compliance notices to connected websocket clients. A driver
// receives their own notices; managers registered under AllDrivers receive
// everyone's.
type Hub struct {
	clients   map[uint]map[*websocket.Conn]bool
	broadcast chan wtd.Notice
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewHub creates a Hub and starts its delivery goroutine.
func NewHub() *Hub {
	hub := &Hub{
		clients:   make(map[uint]map[*websocket.Conn]bool),
		broadcast: make(chan wtd.Notice, 100),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for n := range h.broadcast {
		for _, conn := range h.targets(n.DriverID) {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"driver_id": n.DriverID,
					"conn_ptr":  fmt.Sprintf("%p", conn),
				}).Info("Dropping notice client after failed write")
				h.Unregister(n.DriverID, conn)
				h.Unregister(AllDrivers, conn)
				conn.Close()
			}
		}
	}
}

func (h *Hub) targets(driverID uint) []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*websocket.Conn
	for conn := range h.clients[driverID] {
		out = append(out, conn)
	}
	if driverID != AllDrivers {
		for conn := range h.clients[AllDrivers] {
			out = append(out, conn)
		}
	}
	return out
}

// Register subscribes conn to driverID's notices.
func (h *Hub) Register(driverID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[driverID]; !ok {
		h.clients[driverID] = make(map[*websocket.Conn]bool)
	}
	h.clients[driverID][conn] = true
	metrics.NoticeClients.Inc()
	logrus.WithFields(logrus.Fields{
		"driver_id": driverID,
		"conn_ptr":  fmt.Sprintf("%p", conn),
	}).Info("Notice client registered.")
}

// Unregister removes conn. Unknown connections are ignored.
func (h *Hub) Unregister(driverID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[driverID]
	if !ok || !clients[conn] {
		return
	}
	delete(clients, conn)
	if len(clients) == 0 {
		delete(h.clients, driverID)
	}
	metrics.NoticeClients.Dec()
}

// Clients returns the number of connections subscribed to driverID.
func (h *Hub) Clients(driverID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[driverID])
}

// Notify queues n for delivery. It never blocks; when the queue is full the
// notice is dropped.
func (h *Hub) Notify(_ context.Context, n wtd.Notice) {
	select {
	case h.broadcast <- n:
	default:
		logrus.WithField("driver_id", n.DriverID).Warn("Notice queue full, dropping notice.")
	}
}

// Serve registers conn and blocks until the client goes away. Clients are
// not expected to send anything.
func (h *Hub) Serve(conn *websocket.Conn, driverID uint) {
	h.Register(driverID, conn)
	defer h.Unregister(driverID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithField("driver_id", driverID).Debug("Notice websocket read ended")
			}
			return
		}
	}
}

// Close stops delivery. Notify must not be called afterwards.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.broadcast) })
}
