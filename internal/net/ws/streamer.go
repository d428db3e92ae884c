// Package ws streams journal keyframes to websocket subscribers and accepts
// intent commands from them.
package ws

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/kamilpitula/platformer/internal/journal"
	"github.com/kamilpitula/platformer/internal/net/proto"
	"github.com/kamilpitula/platformer/internal/sim"
	"github.com/kamilpitula/platformer/internal/telemetry"
)

const (
	MetricBroadcastTotal = "ws.broadcast_total"
	MetricBroadcastBytes = "ws.broadcast_bytes"
	MetricSubscribers    = "ws.subscribers"
	MetricWriteFailures  = "ws.write_failures_total"
)

// Streamer fans encoded keyframes out to every connected subscriber.
type Streamer struct {
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}

	tick atomic.Uint64
}

func NewStreamer(logger telemetry.Logger, metrics telemetry.Metrics) *Streamer {
	return &Streamer{
		logger:      logger,
		metrics:     metrics,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Tick is the last tick observed by BroadcastStep.
func (s *Streamer) Tick() uint64 { return s.tick.Load() }

// Subscribers reports the number of live connections.
func (s *Streamer) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// BroadcastStep records the tick of result and pushes the keyframe it
// produced, if any. It is meant to run as a loop AfterStep hook.
func (s *Streamer) BroadcastStep(j *journal.Journal, result sim.LoopStepResult) {
	s.tick.Store(result.Tick)
	if j == nil || result.Keyframe == 0 {
		return
	}
	frame, ok := j.KeyframeBySequence(result.Keyframe)
	if !ok {
		return
	}
	s.Broadcast(frame)
}

// Broadcast encodes frame once and writes it to every subscriber. Subscribers
// whose write fails are dropped. It returns the number of successful writes.
func (s *Streamer) Broadcast(frame journal.Keyframe) int {
	data, err := proto.EncodeKeyframe(frame)
	if err != nil {
		s.logf("[stream] failed to encode keyframe seq=%d: %v", frame.Sequence, err)
		return 0
	}

	s.mu.Lock()
	targets := make([]*subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	delivered := 0
	for _, sub := range targets {
		if err := sub.WriteMessage(websocket.BinaryMessage, data); err != nil {
			s.add(MetricWriteFailures, 1)
			s.logf("[stream] dropping subscriber actor=%q: %v", sub.actorID, err)
			s.unsubscribe(sub)
			continue
		}
		delivered++
	}
	s.add(MetricBroadcastTotal, 1)
	s.add(MetricBroadcastBytes, uint64(len(data)*delivered))
	return delivered
}

// Close disconnects every subscriber.
func (s *Streamer) Close() {
	s.mu.Lock()
	targets := s.subscribers
	s.subscribers = make(map[*subscriber]struct{})
	s.mu.Unlock()

	for sub := range targets {
		sub.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		sub.Close()
	}
	s.store(MetricSubscribers, 0)
}

func (s *Streamer) subscribe(sub *subscriber) {
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	count := len(s.subscribers)
	s.mu.Unlock()
	s.store(MetricSubscribers, uint64(count))
}

func (s *Streamer) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	_, ok := s.subscribers[sub]
	delete(s.subscribers, sub)
	count := len(s.subscribers)
	s.mu.Unlock()
	if !ok {
		return
	}
	sub.Close()
	s.store(MetricSubscribers, uint64(count))
}

func (s *Streamer) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func (s *Streamer) add(key string, delta uint64) {
	if s.metrics != nil {
		s.metrics.Add(key, delta)
	}
}

func (s *Streamer) store(key string, value uint64) {
	if s.metrics != nil {
		s.metrics.Store(key, value)
	}
}
