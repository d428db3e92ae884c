// Package proto defines the websocket wire format shared by the keyframe
// stream and its clients.
package proto

import (
	"encoding/json"
	"strings"

	"github.com/kamilpitula/platformer/internal/journal"
	"github.com/kamilpitula/platformer/internal/sim"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client message type identifiers.
const (
	TypeCommand         = "command"
	TypeHeartbeat       = "heartbeat"
	TypeKeyframeRequest = "keyframeRequest"
)

// Outbound message type identifiers. Keyframes travel as binary msgpack
// frames and carry no type field.
const (
	TypeCommandAck    = "commandAck"
	TypeCommandReject = "commandReject"
	TypeKeyframeNack  = "keyframeNack"
)

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver         int     `json:"ver,omitempty"`
	Type        string  `json:"type"`
	Command     string  `json:"command,omitempty"`
	Factor      float64 `json:"factor,omitempty"`
	DX          float64 `json:"dx,omitempty"`
	DY          float64 `json:"dy,omitempty"`
	SentAt      int64   `json:"sentAt,omitempty"`
	Seq         *uint64 `json:"seq,omitempty"`
	KeyframeSeq *uint64 `json:"keyframeSeq,omitempty"`
}

// DecodeClientMessage parses a text frame.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}

// ClientCommand converts a command message into a simulation command. The
// actor, tick and timestamp are filled in by the caller.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	if msg.Type != TypeCommand {
		return sim.Command{}, false
	}
	cmdType := sim.CommandType(strings.TrimSpace(msg.Command))
	cmd := sim.Command{Type: cmdType}
	switch cmdType {
	case sim.CommandMoveLeft, sim.CommandMoveRight, sim.CommandWalk:
		cmd.Factor = msg.Factor
	case sim.CommandStop, sim.CommandJump, sim.CommandDrop, sim.CommandFalling, sim.CommandStopFalling:
	case sim.CommandImpulse:
		cmd.Impulse = &sim.ImpulseCommand{DX: msg.DX, DY: msg.DY}
	default:
		return sim.Command{}, false
	}
	return cmd, true
}

type CommandAck struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Tick uint64 `json:"tick,omitempty"`
}

type CommandReject struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}

type Heartbeat struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	Tick       uint64 `json:"tick"`
}

// KeyframeNack answers a keyframe request the journal can no longer serve.
type KeyframeNack struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Sequence uint64 `json:"sequence"`
	Oldest   uint64 `json:"oldest"`
	Newest   uint64 `json:"newest"`
	Reason   string `json:"reason"`
}

const (
	NackExpired  = "expired"
	NackNotFound = "not_found"
)

func NewCommandAck(seq, tick uint64) CommandAck {
	return CommandAck{Ver: Version, Type: TypeCommandAck, Seq: seq, Tick: tick}
}

func NewCommandReject(seq uint64, reason string, retry bool) CommandReject {
	return CommandReject{Ver: Version, Type: TypeCommandReject, Seq: seq, Reason: reason, Retry: retry}
}

// NewKeyframeNack explains why sequence is unavailable given the journal
// window.
func NewKeyframeNack(sequence uint64, oldest, newest uint64) KeyframeNack {
	reason := NackNotFound
	if oldest > 0 && sequence < oldest {
		reason = NackExpired
	}
	return KeyframeNack{
		Ver:      Version,
		Type:     TypeKeyframeNack,
		Sequence: sequence,
		Oldest:   oldest,
		Newest:   newest,
		Reason:   reason,
	}
}

// EncodeKeyframe renders the binary payload pushed to subscribers.
func EncodeKeyframe(frame journal.Keyframe) ([]byte, error) {
	return journal.Encode(frame)
}
