package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-mocap/pkg/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send small control messages.
	maxInbound = 4 * 1024
)

// Subscriber is one websocket connection attached to a hub.
type Subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// Serve attaches conn to the hub and blocks until it disconnects or the hub
// stops. Use it directly as a websocket.New handler.
func (h *Hub) Serve(conn *websocket.Conn) {
	s := &Subscriber{
		hub:  h,
		conn: conn,
		send: make(chan Message, h.queue),
	}

	select {
	case h.joins <- s:
	case <-h.finished:
		conn.Close()
		return
	}

	go s.writeLoop()
	s.readLoop()
}

// readLoop answers protocol pings and notices disconnects.
func (s *Subscriber) readLoop() {
	defer func() {
		select {
		case s.hub.leaves <- s:
		case <-s.hub.finished:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxInbound)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.ParseMessage(data)
		if err != nil || msg.Type != protocol.TypePing {
			continue
		}
		var ping protocol.PingData
		msg.ParseData(&ping)
		pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
		if err != nil {
			continue
		}
		b, err := pong.Bytes()
		if err != nil {
			continue
		}
		s.reply(TextMessage(b))
	}
}

// reply queues a message for this subscriber only. The hub may have closed
// the queue already, which is not an error here.
func (s *Subscriber) reply(msg Message) {
	defer func() { recover() }()
	select {
	case s.send <- msg:
	default:
	}
}

// writeLoop is the only goroutine writing to the connection.
func (s *Subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if msg.Kind == Binary {
				kind = websocket.BinaryMessage
			}
			if err := s.conn.WriteMessage(kind, msg.Data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
