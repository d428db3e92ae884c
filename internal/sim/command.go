package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/kamilpitula/platformer/internal/body"
	"github.com/kamilpitula/platformer/internal/geom"
)

// CommandType enumerates the intents a body accepts.
type CommandType string

const (
	CommandMoveLeft    CommandType = "move_left"
	CommandMoveRight   CommandType = "move_right"
	CommandWalk        CommandType = "walk"
	CommandStop        CommandType = "stop"
	CommandJump        CommandType = "jump"
	CommandDrop        CommandType = "drop"
	CommandFalling     CommandType = "falling"
	CommandStopFalling CommandType = "stop_falling"
	CommandImpulse     CommandType = "impulse"
)

var (
	ErrUnknownActor   = errors.New("sim: unknown actor")
	ErrUnknownCommand = errors.New("sim: unknown command type")
	ErrMissingPayload = errors.New("sim: command payload missing")
)

// ImpulseCommand adds a velocity change.
type ImpulseCommand struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Command is an intent staged for the next tick.
type Command struct {
	OriginTick uint64      `json:"originTick"`
	ActorID    string      `json:"actorId"`
	Type       CommandType `json:"type"`
	IssuedAt   time.Time   `json:"issuedAt"`
	// Factor scales move_left and move_right (zero means full strength) and
	// is the axis for walk.
	Factor  float64         `json:"factor,omitempty"`
	Impulse *ImpulseCommand `json:"impulse,omitempty"`
}

// BodyLookup resolves actors to bodies.
type BodyLookup interface {
	Body(id string) (*body.MovingBody, bool)
}

// Apply executes cmd against the actor's body.
func Apply(bodies BodyLookup, cmd Command) error {
	b, ok := bodies.Body(cmd.ActorID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownActor, cmd.ActorID)
	}

	factor := cmd.Factor
	if factor == 0 {
		factor = 1
	}

	switch cmd.Type {
	case CommandMoveLeft:
		b.MoveLeft(factor)
	case CommandMoveRight:
		b.MoveRight(factor)
	case CommandWalk:
		b.SetHorizontalIntent(cmd.Factor)
	case CommandStop:
		b.Stop()
	case CommandJump:
		b.Jump()
	case CommandDrop:
		b.Drop()
	case CommandFalling:
		b.Falling()
	case CommandStopFalling:
		b.StopFalling()
	case CommandImpulse:
		if cmd.Impulse == nil {
			return fmt.Errorf("%w: %s", ErrMissingPayload, cmd.Type)
		}
		b.ApplyImpulse(geom.Vec2{cmd.Impulse.DX, cmd.Impulse.DY})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}
