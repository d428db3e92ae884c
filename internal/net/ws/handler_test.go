package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kamilpitula/platformer/internal/journal"
	"github.com/kamilpitula/platformer/internal/net/proto"
	"github.com/kamilpitula/platformer/internal/sim"
	"github.com/kamilpitula/platformer/internal/telemetry"
	"github.com/kamilpitula/platformer/logging"
)

type recordingQueue struct {
	mu       sync.Mutex
	accept   bool
	commands []sim.Command
}

func (q *recordingQueue) Enqueue(_ context.Context, cmd sim.Command) (bool, string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.accept {
		return false, sim.CommandRejectQueueLimit
	}
	q.commands = append(q.commands, cmd)
	return true, ""
}

func (q *recordingQueue) snapshot() []sim.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]sim.Command(nil), q.commands...)
}

type harness struct {
	streamer *Streamer
	journal  *journal.Journal
	queue    *recordingQueue
	metrics  *logging.Metrics
	server   *httptest.Server
}

func newHarness(t *testing.T, accept bool) *harness {
	t.Helper()
	j := journal.New(4, 0)
	j.RecordKeyframe(journal.Keyframe{Tick: 1, Bodies: []journal.BodyState{{ID: "hero", X: 10, Y: 20}}})

	metrics := &logging.Metrics{}
	streamer := NewStreamer(nil, telemetry.WrapMetrics(metrics))
	queue := &recordingQueue{accept: accept}
	handler := NewHandler(streamer, HandlerConfig{
		Journal:  j,
		Queue:    queue,
		HasActor: func(id string) bool { return id == "hero" },
		Now:      func() time.Time { return time.UnixMilli(5000) },
	})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)
	return &harness{streamer: streamer, journal: j, queue: queue, metrics: metrics, server: srv}
}

func (h *harness) dial(t *testing.T, actorID string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, h.server.URL, actorID), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func readKeyframe(t *testing.T, conn *websocket.Conn) journal.Keyframe {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read keyframe: %v", err)
	}
	if messageType != websocket.BinaryMessage {
		t.Fatalf("expected binary keyframe, got message type %d: %s", messageType, payload)
	}
	frame, err := journal.Decode(payload)
	if err != nil {
		t.Fatalf("failed to decode keyframe: %v", err)
	}
	return frame
}

func readJSON(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	if messageType != websocket.TextMessage {
		t.Fatalf("expected text message, got type %d", messageType)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		t.Fatalf("failed to decode %s: %v", payload, err)
	}
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %v: %v", msg, err)
	}
}

func TestHandleSendsLatestKeyframeOnConnect(t *testing.T) {
	h := newHarness(t, true)
	conn := h.dial(t, "")

	frame := readKeyframe(t, conn)
	if frame.Sequence != 1 || frame.Tick != 1 {
		t.Fatalf("expected first keyframe, got seq=%d tick=%d", frame.Sequence, frame.Tick)
	}
	if body, ok := frame.Body("hero"); !ok || body.X != 10 {
		t.Fatalf("expected hero state in keyframe, got %+v", frame.Bodies)
	}
}

func TestHandleAcksCommandsAndDeduplicates(t *testing.T) {
	h := newHarness(t, true)
	conn := h.dial(t, "hero")
	readKeyframe(t, conn)

	send(t, conn, map[string]any{"type": "command", "command": "move_right", "factor": 0.5, "seq": 1})
	var ack proto.CommandAck
	readJSON(t, conn, &ack)
	if ack.Type != proto.TypeCommandAck || ack.Seq != 1 {
		t.Fatalf("expected ack for seq 1, got %+v", ack)
	}

	send(t, conn, map[string]any{"type": "command", "command": "move_right", "seq": 1})
	readJSON(t, conn, &ack)
	if ack.Type != proto.TypeCommandAck || ack.Seq != 1 {
		t.Fatalf("expected duplicate ack for seq 1, got %+v", ack)
	}

	commands := h.queue.snapshot()
	if len(commands) != 1 {
		t.Fatalf("expected one staged command, got %d", len(commands))
	}
	if commands[0].ActorID != "hero" || commands[0].Type != sim.CommandMoveRight || commands[0].Factor != 0.5 {
		t.Fatalf("unexpected staged command %+v", commands[0])
	}
	if !commands[0].IssuedAt.Equal(time.UnixMilli(5000)) {
		t.Fatalf("expected handler clock to stamp command, got %v", commands[0].IssuedAt)
	}
}

func TestHandleRejectsThrottledAndWatchOnlyCommands(t *testing.T) {
	h := newHarness(t, false)
	conn := h.dial(t, "hero")
	readKeyframe(t, conn)

	send(t, conn, map[string]any{"type": "command", "command": "jump", "seq": 3})
	var reject proto.CommandReject
	readJSON(t, conn, &reject)
	if reject.Type != proto.TypeCommandReject || reject.Reason != sim.CommandRejectQueueLimit || !reject.Retry {
		t.Fatalf("expected retryable queue_limit reject, got %+v", reject)
	}

	watcher := h.dial(t, "")
	readKeyframe(t, watcher)
	send(t, watcher, map[string]any{"type": "command", "command": "jump", "seq": 1})
	readJSON(t, watcher, &reject)
	if reject.Reason != "unknown_actor" || reject.Retry {
		t.Fatalf("expected unknown_actor reject for watcher, got %+v", reject)
	}
}

func TestHandleServesKeyframeRequests(t *testing.T) {
	h := newHarness(t, true)
	conn := h.dial(t, "")
	readKeyframe(t, conn)

	send(t, conn, map[string]any{"type": "keyframeRequest", "keyframeSeq": 1})
	if frame := readKeyframe(t, conn); frame.Sequence != 1 {
		t.Fatalf("expected keyframe 1, got %d", frame.Sequence)
	}

	send(t, conn, map[string]any{"type": "keyframeRequest", "keyframeSeq": 9})
	var nack proto.KeyframeNack
	readJSON(t, conn, &nack)
	if nack.Type != proto.TypeKeyframeNack || nack.Sequence != 9 || nack.Reason != proto.NackNotFound {
		t.Fatalf("unexpected nack %+v", nack)
	}
	if nack.Oldest != 1 || nack.Newest != 1 {
		t.Fatalf("expected window 1..1, got %d..%d", nack.Oldest, nack.Newest)
	}
}

func TestHandleAnswersHeartbeat(t *testing.T) {
	h := newHarness(t, true)
	conn := h.dial(t, "")
	readKeyframe(t, conn)

	h.streamer.BroadcastStep(nil, sim.LoopStepResult{})
	send(t, conn, map[string]any{"type": "heartbeat", "sentAt": 1234})
	var beat proto.Heartbeat
	readJSON(t, conn, &beat)
	if beat.ClientTime != 1234 || beat.ServerTime != 5000 {
		t.Fatalf("unexpected heartbeat %+v", beat)
	}
}

func TestHandleClosesUnknownActor(t *testing.T) {
	h := newHarness(t, true)
	conn := h.dial(t, "ghost")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
	if n := h.streamer.Subscribers(); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestStreamerBroadcastsRecordedKeyframes(t *testing.T) {
	h := newHarness(t, true)
	first := h.dial(t, "")
	second := h.dial(t, "hero")
	readKeyframe(t, first)
	readKeyframe(t, second)

	result := h.journal.RecordKeyframe(journal.Keyframe{Tick: 7})
	var step sim.LoopStepResult
	step.Tick = 7
	step.Keyframe = result.Sequence
	h.streamer.BroadcastStep(h.journal, step)

	for _, conn := range []*websocket.Conn{first, second} {
		if frame := readKeyframe(t, conn); frame.Tick != 7 || frame.Sequence != 2 {
			t.Fatalf("expected broadcast of keyframe 2, got seq=%d tick=%d", frame.Sequence, frame.Tick)
		}
	}
	if h.streamer.Tick() != 7 {
		t.Fatalf("expected streamer tick 7, got %d", h.streamer.Tick())
	}
	if got := h.metrics.Value(MetricBroadcastTotal); got != 1 {
		t.Fatalf("expected one broadcast, got %d", got)
	}
	if got := h.metrics.Value(MetricSubscribers); got != 2 {
		t.Fatalf("expected subscriber gauge 2, got %d", got)
	}
}

func TestStreamerDropsClosedSubscribers(t *testing.T) {
	h := newHarness(t, true)
	conn := h.dial(t, "")
	readKeyframe(t, conn)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.streamer.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected subscriber to be removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if delivered := h.streamer.Broadcast(journal.Keyframe{Sequence: 3}); delivered != 0 {
		t.Fatalf("expected no deliveries, got %d", delivered)
	}
}

func websocketURL(t *testing.T, baseURL, actorID string) string {
	t.Helper()

	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	if actorID != "" {
		parsed.RawQuery = url.Values{"id": []string{actorID}}.Encode()
	}
	return parsed.String()
}
