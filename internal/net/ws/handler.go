package ws

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kamilpitula/platformer/internal/journal"
	"github.com/kamilpitula/platformer/internal/net/intake"
	"github.com/kamilpitula/platformer/internal/net/proto"
	"github.com/kamilpitula/platformer/internal/sim"
	"github.com/kamilpitula/platformer/internal/telemetry"
)

type HandlerConfig struct {
	Logger  telemetry.Logger
	Journal *journal.Journal
	Queue   intake.CommandQueue
	// HasActor reports whether a session may steer the named body. Nil
	// accepts any non-empty id and leaves validation to the loop.
	HasActor func(string) bool
	Now      func() time.Time
}

// Handler upgrades connections, registers them with the streamer and serves
// their inbound messages.
type Handler struct {
	streamer *Streamer
	config   HandlerConfig
	upgrader websocket.Upgrader
}

func NewHandler(streamer *Streamer, cfg HandlerConfig) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Handler{
		streamer: streamer,
		config:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// Handle serves one websocket session. The optional id query parameter names
// the body the session steers; without it the session only watches.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	actorID := r.URL.Query().Get("id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("upgrade failed for %q: %v", actorID, err)
		return
	}

	if actorID != "" && h.config.HasActor != nil && !h.config.HasActor(actorID) {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown actor")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	sub := newSubscriber(conn, actorID)
	h.streamer.subscribe(sub)
	defer h.streamer.unsubscribe(sub)

	if h.config.Journal != nil {
		if frame, ok := h.config.Journal.Latest(); ok {
			if !h.writeKeyframe(sub, frame) {
				return
			}
		}
	}

	ctx := r.Context()
	cc := intake.CommandContext{
		Queue:    h.config.Queue,
		HasActor: h.config.HasActor,
		Tick:     h.streamer.Tick,
		Now:      h.config.Now,
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logf("discarding malformed message from %q: %v", actorID, err)
			continue
		}

		seq := uint64(0)
		if msg.Seq != nil {
			seq = *msg.Seq
		}

		switch msg.Type {
		case proto.TypeCommand:
			if seq > 0 {
				if last := sub.LastCommandSeq(); last > 0 && seq <= last {
					if !h.writeJSON(sub, proto.NewCommandAck(seq, 0)) {
						return
					}
					continue
				}
			}
			cmd, ok, reason := intake.StageClientCommand(ctx, cc, actorID, msg)
			if !ok {
				if reason == intake.CommandRejectUnknownActor && actorID != "" {
					h.logf("command ignored for unknown actor %q", actorID)
				}
				if seq > 0 && !h.writeJSON(sub, proto.NewCommandReject(seq, reason, reason == sim.CommandRejectQueueLimit)) {
					return
				}
				continue
			}
			if seq > 0 {
				if !h.writeJSON(sub, proto.NewCommandAck(seq, cmd.OriginTick)) {
					return
				}
				sub.StoreLastCommandSeq(seq)
			}
		case proto.TypeHeartbeat:
			ack := proto.Heartbeat{
				Ver:        proto.Version,
				Type:       proto.TypeHeartbeat,
				ServerTime: h.config.Now().UnixMilli(),
				ClientTime: msg.SentAt,
				Tick:       h.streamer.Tick(),
			}
			if !h.writeJSON(sub, ack) {
				return
			}
		case proto.TypeKeyframeRequest:
			if msg.KeyframeSeq == nil || h.config.Journal == nil {
				continue
			}
			if frame, ok := h.config.Journal.KeyframeBySequence(*msg.KeyframeSeq); ok {
				if !h.writeKeyframe(sub, frame) {
					return
				}
				continue
			}
			_, oldest, newest := h.config.Journal.KeyframeWindow()
			if !h.writeJSON(sub, proto.NewKeyframeNack(*msg.KeyframeSeq, oldest, newest)) {
				return
			}
		default:
			h.logf("unknown message type %q from %q", msg.Type, actorID)
		}
	}
}

func (h *Handler) writeKeyframe(sub *subscriber, frame journal.Keyframe) bool {
	data, err := proto.EncodeKeyframe(frame)
	if err != nil {
		h.logf("failed to encode keyframe seq=%d: %v", frame.Sequence, err)
		return true
	}
	return sub.WriteMessage(websocket.BinaryMessage, data) == nil
}

func (h *Handler) writeJSON(sub *subscriber, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logf("failed to marshal response for %q: %v", sub.actorID, err)
		return true
	}
	return sub.WriteMessage(websocket.TextMessage, data) == nil
}

func (h *Handler) logf(format string, args ...any) {
	if h.config.Logger != nil {
		h.config.Logger.Printf(format, args...)
	}
}
