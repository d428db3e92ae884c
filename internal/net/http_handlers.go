// Package net exposes the simulator over HTTP: health and diagnostics
// endpoints, keyframe lookups and the websocket stream.
package net

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/kamilpitula/platformer/internal/journal"
	"github.com/kamilpitula/platformer/internal/net/proto"
	"github.com/kamilpitula/platformer/internal/net/ws"
	"github.com/kamilpitula/platformer/internal/observability"
	"github.com/kamilpitula/platformer/internal/telemetry"
	"github.com/kamilpitula/platformer/logging"
)

const DefaultWebsocketPath = "/ws"

type HTTPHandlerConfig struct {
	Logger        telemetry.Logger
	Journal       *journal.Journal
	Streamer      *ws.Streamer
	Websocket     *ws.Handler
	WebsocketPath string
	Metrics       *logging.Metrics
	TickRate      int
	Observability observability.Config
}

func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status      string            `json:"status"`
			ServerTime  int64             `json:"serverTime"`
			TickRate    int               `json:"tickRate"`
			Tick        uint64            `json:"tick"`
			Subscribers int               `json:"subscribers"`
			Keyframes   keyframeWindow    `json:"keyframes"`
			Telemetry   map[string]uint64 `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   cfg.TickRate,
			Telemetry:  cfg.Metrics.Snapshot(),
		}
		if cfg.Streamer != nil {
			payload.Tick = cfg.Streamer.Tick()
			payload.Subscribers = cfg.Streamer.Subscribers()
		}
		if cfg.Journal != nil {
			payload.Keyframes.Size, payload.Keyframes.Oldest, payload.Keyframes.Newest = cfg.Journal.KeyframeWindow()
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("GET /keyframes/latest", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if cfg.Journal == nil {
			httpError(w, "journal disabled", nethttp.StatusNotFound)
			return
		}
		frame, ok := cfg.Journal.Latest()
		if !ok {
			httpError(w, "no keyframes recorded", nethttp.StatusNotFound)
			return
		}
		writeKeyframe(w, r, frame)
	})

	mux.HandleFunc("GET /keyframes/{seq}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if cfg.Journal == nil {
			httpError(w, "journal disabled", nethttp.StatusNotFound)
			return
		}
		seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 64)
		if err != nil {
			httpError(w, "invalid sequence", nethttp.StatusBadRequest)
			return
		}
		frame, ok := cfg.Journal.KeyframeBySequence(seq)
		if !ok {
			_, oldest, newest := cfg.Journal.KeyframeWindow()
			writeJSON(w, nethttp.StatusNotFound, proto.NewKeyframeNack(seq, oldest, newest))
			return
		}
		writeKeyframe(w, r, frame)
	})

	if cfg.Websocket != nil {
		path := cfg.WebsocketPath
		if path == "" {
			path = DefaultWebsocketPath
		}
		mux.HandleFunc(path, cfg.Websocket.Handle)
	}

	cfg.Observability.Register(mux)

	return mux
}

type keyframeWindow struct {
	Size   int    `json:"size"`
	Oldest uint64 `json:"oldest"`
	Newest uint64 `json:"newest"`
}

// writeKeyframe answers with JSON unless the client asks for msgpack.
func writeKeyframe(w nethttp.ResponseWriter, r *nethttp.Request, frame journal.Keyframe) {
	if r.URL.Query().Get("format") == "msgpack" {
		data, err := proto.EncodeKeyframe(frame)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(data)
		return
	}
	writeJSON(w, nethttp.StatusOK, frame)
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
