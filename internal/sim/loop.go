// Package sim drives a world at a fixed timestep and feeds it intent commands
// staged by other goroutines.
package sim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kamilpitula/platformer/internal/telemetry"
	"github.com/kamilpitula/platformer/internal/world"
	"github.com/kamilpitula/platformer/logging"
	"github.com/kamilpitula/platformer/logging/simulation"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to per-actor
	// queue throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the global command buffer is saturated.
	CommandRejectQueueFull = "queue_full"
	// CommandRejectInvalid indicates the world refused the command.
	CommandRejectInvalid = "invalid"
)

const (
	DefaultTickRate        = 60
	DefaultCommandCapacity = 256
	DefaultPerActorLimit   = 16
)

// LoopConfig tunes the command buffer and tick loop.
type LoopConfig struct {
	TickRate        int
	CommandCapacity int
	PerActorLimit   int
}

func (cfg LoopConfig) normalized() LoopConfig {
	normalized := cfg
	if normalized.TickRate <= 0 {
		normalized.TickRate = DefaultTickRate
	}
	if normalized.CommandCapacity <= 0 {
		normalized.CommandCapacity = DefaultCommandCapacity
	}
	if normalized.PerActorLimit < 0 {
		normalized.PerActorLimit = 0
	}
	return normalized
}

// DefaultLoopConfig runs at 60 updates per second.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TickRate:        DefaultTickRate,
		CommandCapacity: DefaultCommandCapacity,
		PerActorLimit:   DefaultPerActorLimit,
	}
}

// Deps carries shared infrastructure dependencies required by the loop.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
}

// LoopStepResult describes one advanced tick.
type LoopStepResult struct {
	world.StepResult
	Delta    float64
	Commands []Command
	Rejected int
	Duration time.Duration
	Budget   time.Duration
}

// LoopHooks observe the loop. Hooks run on the loop goroutine.
type LoopHooks struct {
	AfterStep     func(LoopStepResult)
	OnCommandDrop func(reason string, cmd Command)
}

// Loop owns the world while running. All world access goes through it.
type Loop struct {
	world     *world.World
	buffer    *CommandBuffer
	hooks     LoopHooks
	config    LoopConfig
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	publisher logging.Publisher
	clock     logging.Clock

	queueMu       sync.Mutex
	perActorCount map[string]int
	dropCounts    map[string]uint64

	overrunStreak uint64

	// lastTick mirrors the world tick for goroutines other than the one
	// running Advance.
	lastTick atomic.Uint64
}

// NewLoop wraps w with a command queue and a fixed-step runner.
func NewLoop(w *world.World, cfg LoopConfig, deps Deps, hooks LoopHooks) *Loop {
	normalized := cfg.normalized()
	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	clock := deps.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	loop := &Loop{
		world:         w,
		buffer:        NewCommandBuffer(normalized.CommandCapacity, deps.Metrics),
		hooks:         hooks,
		config:        normalized,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		publisher:     publisher,
		clock:         clock,
		perActorCount: make(map[string]int),
		dropCounts:    make(map[string]uint64),
	}
	loop.lastTick.Store(w.Tick())
	return loop
}

// World returns the driven world. Callers must not touch it while Run is
// active.
func (l *Loop) World() *world.World { return l.world }

// Config returns the normalized loop configuration.
func (l *Loop) Config() LoopConfig { return l.config }

// Delta is the fixed step in seconds.
func (l *Loop) Delta() float64 {
	return 1.0 / float64(l.config.TickRate)
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	return l.buffer.Len()
}

// Enqueue stages a command, enforcing per-actor throttling and capacity
// limits. Safe for concurrent use.
func (l *Loop) Enqueue(ctx context.Context, cmd Command) (bool, string) {
	reason := ""
	var dropCount uint64

	l.queueMu.Lock()
	if l.config.PerActorLimit > 0 && cmd.ActorID != "" {
		count := l.perActorCount[cmd.ActorID]
		if count >= l.config.PerActorLimit {
			reason = CommandRejectQueueLimit
		} else {
			l.perActorCount[cmd.ActorID] = count + 1
		}
	}
	if reason == "" && !l.buffer.Push(cmd) {
		reason = CommandRejectQueueFull
	}
	if reason != "" {
		dropCount = l.incrementDropLocked(cmd.ActorID)
	}
	l.queueMu.Unlock()

	if reason != "" {
		l.reportDrop(ctx, reason, cmd, dropCount)
		return false, reason
	}
	return true, ""
}

// Advance applies the staged commands and steps the world once by the fixed
// delta.
func (l *Loop) Advance(ctx context.Context) (LoopStepResult, error) {
	commands := l.drainCommands()
	rejected := 0
	for _, cmd := range commands {
		if err := Apply(l.world, cmd); err != nil {
			rejected++
			l.reportDrop(ctx, CommandRejectInvalid, cmd, 0)
			if l.logger != nil {
				l.logger.Printf("[sim] rejected command actor=%s type=%s: %v", cmd.ActorID, cmd.Type, err)
			}
		}
	}

	start := l.clock.Now()
	step, err := l.world.Step(ctx, l.Delta())
	if err != nil {
		return LoopStepResult{}, err
	}
	result := LoopStepResult{
		StepResult: step,
		Delta:      l.Delta(),
		Commands:   commands,
		Rejected:   rejected,
		Duration:   l.clock.Now().Sub(start),
		Budget:     time.Second / time.Duration(l.config.TickRate),
	}
	l.lastTick.Store(step.Tick)
	l.checkBudget(ctx, result)

	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(result)
	}
	return result, nil
}

// Run advances the world on a ticker until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.config.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := l.Advance(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			}
		}
	}
}

func (l *Loop) checkBudget(ctx context.Context, result LoopStepResult) {
	if result.Budget <= 0 || result.Duration <= result.Budget {
		l.overrunStreak = 0
		return
	}
	l.overrunStreak++
	if l.metrics != nil {
		l.metrics.Add("sim.tick_budget_overrun_total", 1)
	}
	simulation.TickBudgetOverrun(ctx, l.publisher, result.Tick, simulation.TickBudgetOverrunPayload{
		DurationMillis: result.Duration.Milliseconds(),
		BudgetMillis:   result.Budget.Milliseconds(),
		Ratio:          float64(result.Duration) / float64(result.Budget),
		Streak:         l.overrunStreak,
	}, nil)
}

func (l *Loop) drainCommands() []Command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	commands := l.buffer.Drain()
	if len(l.perActorCount) > 0 {
		clear(l.perActorCount)
	}
	return commands
}

func (l *Loop) incrementDropLocked(actorID string) uint64 {
	if actorID == "" {
		return 0
	}
	count := l.dropCounts[actorID] + 1
	l.dropCounts[actorID] = count
	return count
}

func (l *Loop) reportDrop(ctx context.Context, reason string, cmd Command, count uint64) {
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	if l.metrics != nil {
		l.metrics.Add("sim.command_dropped."+reason, 1)
	}
	simulation.CommandDropped(ctx, l.publisher, l.lastTick.Load(), logging.BodyRef(cmd.ActorID), simulation.CommandDroppedPayload{
		Reason:  reason,
		Command: string(cmd.Type),
	})
	// Repeated drops log at powers of two.
	if count > 0 && count&(count-1) == 0 && l.logger != nil {
		l.logger.Printf(
			"[backpressure] dropping command actor=%s type=%s count=%d limit=%d",
			cmd.ActorID,
			cmd.Type,
			count,
			l.config.PerActorLimit,
		)
	}
}
