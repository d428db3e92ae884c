package proto

import (
	"testing"

	"github.com/kamilpitula/platformer/internal/journal"
	"github.com/kamilpitula/platformer/internal/sim"
)

func TestClientCommandMapsEveryIntent(t *testing.T) {
	tests := []struct {
		name    string
		msg     ClientMessage
		want    sim.CommandType
		factor  float64
		impulse *sim.ImpulseCommand
	}{
		{name: "move left", msg: ClientMessage{Type: TypeCommand, Command: "move_left", Factor: 0.5}, want: sim.CommandMoveLeft, factor: 0.5},
		{name: "walk", msg: ClientMessage{Type: TypeCommand, Command: "walk", Factor: -1}, want: sim.CommandWalk, factor: -1},
		{name: "jump ignores payload", msg: ClientMessage{Type: TypeCommand, Command: "jump", Factor: 3}, want: sim.CommandJump},
		{name: "trimmed", msg: ClientMessage{Type: TypeCommand, Command: " drop "}, want: sim.CommandDrop},
		{name: "impulse", msg: ClientMessage{Type: TypeCommand, Command: "impulse", DX: 10, DY: -20}, want: sim.CommandImpulse, impulse: &sim.ImpulseCommand{DX: 10, DY: -20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := ClientCommand(tt.msg)
			if !ok {
				t.Fatalf("expected %q to map", tt.msg.Command)
			}
			if cmd.Type != tt.want {
				t.Fatalf("expected type %q, got %q", tt.want, cmd.Type)
			}
			if cmd.Factor != tt.factor {
				t.Fatalf("expected factor %v, got %v", tt.factor, cmd.Factor)
			}
			if tt.impulse == nil && cmd.Impulse != nil {
				t.Fatalf("expected no impulse, got %+v", cmd.Impulse)
			}
			if tt.impulse != nil && (cmd.Impulse == nil || *cmd.Impulse != *tt.impulse) {
				t.Fatalf("expected impulse %+v, got %+v", tt.impulse, cmd.Impulse)
			}
		})
	}
}

func TestClientCommandRejectsUnknown(t *testing.T) {
	if _, ok := ClientCommand(ClientMessage{Type: TypeCommand, Command: "fly"}); ok {
		t.Fatalf("expected unknown command to be rejected")
	}
	if _, ok := ClientCommand(ClientMessage{Type: TypeHeartbeat, Command: "jump"}); ok {
		t.Fatalf("expected non-command message to be rejected")
	}
}

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"keyframeRequest","keyframeSeq":7}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.Type != TypeKeyframeRequest || msg.KeyframeSeq == nil || *msg.KeyframeSeq != 7 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if _, err := DecodeClientMessage([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected malformed payload to fail")
	}
}

func TestNewKeyframeNackReason(t *testing.T) {
	if nack := NewKeyframeNack(2, 5, 9); nack.Reason != NackExpired {
		t.Fatalf("expected expired for sequence below window, got %q", nack.Reason)
	}
	if nack := NewKeyframeNack(12, 5, 9); nack.Reason != NackNotFound {
		t.Fatalf("expected not_found for future sequence, got %q", nack.Reason)
	}
	if nack := NewKeyframeNack(1, 0, 0); nack.Reason != NackNotFound || nack.Type != TypeKeyframeNack {
		t.Fatalf("unexpected nack for empty journal: %+v", nack)
	}
}

func TestEncodeKeyframeDecodesWithJournal(t *testing.T) {
	frame := journal.Keyframe{Tick: 4, Sequence: 2, Bodies: []journal.BodyState{{ID: "hero", X: 1, Y: 2}}}
	data, err := EncodeKeyframe(frame)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := journal.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Sequence != 2 || len(decoded.Bodies) != 1 || decoded.Bodies[0].ID != "hero" {
		t.Fatalf("unexpected keyframe %+v", decoded)
	}
}
