// Package intake validates client commands before they reach the loop.
package intake

import (
	"context"
	"time"

	"github.com/kamilpitula/platformer/internal/net/proto"
	"github.com/kamilpitula/platformer/internal/sim"
)

const (
	CommandRejectMalformed    = "malformed"
	CommandRejectUnknownActor = "unknown_actor"
)

// CommandQueue stages commands for the next tick. *sim.Loop satisfies it.
type CommandQueue interface {
	Enqueue(ctx context.Context, cmd sim.Command) (bool, string)
}

type CommandContext struct {
	Queue    CommandQueue
	HasActor func(string) bool
	Tick     func() uint64
	Now      func() time.Time
}

// StageClientCommand maps msg onto a command for actorID and enqueues it.
// The returned reason is empty on success.
func StageClientCommand(ctx context.Context, cc CommandContext, actorID string, msg proto.ClientMessage) (sim.Command, bool, string) {
	var zero sim.Command

	command, ok := proto.ClientCommand(msg)
	if !ok {
		return zero, false, CommandRejectMalformed
	}
	if actorID == "" || (cc.HasActor != nil && !cc.HasActor(actorID)) {
		return zero, false, CommandRejectUnknownActor
	}

	command.ActorID = actorID
	if cc.Tick != nil {
		command.OriginTick = cc.Tick()
	}
	if cc.Now != nil {
		command.IssuedAt = cc.Now()
	} else {
		command.IssuedAt = time.Now()
	}

	if cc.Queue == nil {
		return zero, false, sim.CommandRejectQueueFull
	}
	if ok, reason := cc.Queue.Enqueue(ctx, command); !ok {
		return zero, false, reason
	}
	return command, true, ""
}
