package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// subscriber serialises writes to one connection. The read loop and the
// broadcasting loop goroutine share it.
type subscriber struct {
	conn    *websocket.Conn
	actorID string

	mu             sync.Mutex
	lastCommandSeq atomic.Uint64
}

func newSubscriber(conn *websocket.Conn, actorID string) *subscriber {
	return &subscriber{conn: conn, actorID: actorID}
}

func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

func (s *subscriber) LastCommandSeq() uint64 {
	return s.lastCommandSeq.Load()
}

func (s *subscriber) StoreLastCommandSeq(seq uint64) {
	s.lastCommandSeq.Store(seq)
}

func (s *subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
