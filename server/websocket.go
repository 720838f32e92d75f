package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/toonana/toonana/editor"
	"github.com/toonana/toonana/logger"
	"github.com/toonana/toonana/studio"
)

// WebSocket timeouts per the Gorilla chat example.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// Clients only send small control frames.
	maxMessageSize = 4 * 1024

	clientSendBuffer = 16
)

// jobStatusMessage is the wire shape of one status update.
type jobStatusMessage struct {
	Type    string              `json:"type"`
	Status  studio.JobStatus    `json:"status"`
	Display editor.DisplayState `json:"display"`
}

func newJobStatusMessage(status studio.JobStatus) jobStatusMessage {
	return jobStatusMessage{
		Type:    "job_status",
		Status:  status,
		Display: editor.ReduceStage(status.Stage),
	}
}

// Client is one WebSocket connection receiving job status updates.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	send      chan jobStatusMessage
	id        string
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// HandleWebSocket upgrades /ws connections and registers them with the
// hub.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnw("websocket upgrade failed", logger.FieldError, err)
		return
	}

	client := &Client{
		server: s,
		conn:   conn,
		send:   make(chan jobStatusMessage, clientSendBuffer),
		id:     uuid.NewString(),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so close frames and pongs are
// processed; clients don't send application messages.
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugw("websocket read error", "client_id", c.id, logger.FieldError, err)
			}
			return
		}
	}
}

// writePump owns all writes to the connection: status updates and pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
