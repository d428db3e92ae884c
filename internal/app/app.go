// Package app assembles the simulator from a configuration file and runs it
// either for a fixed number of ticks or as a streaming server.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/kamilpitula/platformer/internal/config"
	"github.com/kamilpitula/platformer/internal/geom"
	"github.com/kamilpitula/platformer/internal/journal"
	servernet "github.com/kamilpitula/platformer/internal/net"
	"github.com/kamilpitula/platformer/internal/net/ws"
	"github.com/kamilpitula/platformer/internal/observability"
	"github.com/kamilpitula/platformer/internal/sim"
	"github.com/kamilpitula/platformer/internal/telemetry"
	"github.com/kamilpitula/platformer/internal/world"
	"github.com/kamilpitula/platformer/logging"
	loggingSinks "github.com/kamilpitula/platformer/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	// ConfigPath is optional; the built-in demo level is used when empty.
	ConfigPath string
	// Ticks bounds a headless run. Serve ignores it.
	Ticks int
	Serve bool
	// Output receives the final snapshot of a headless run as JSON.
	Output io.Writer
	// LogOutput receives console log events. Defaults to os.Stderr.
	LogOutput io.Writer
	Logger    telemetry.Logger
	Lookup    config.LookupFunc
}

// Simulation bundles the assembled components.
type Simulation struct {
	Config   config.Config
	World    *world.World
	Loop     *sim.Loop
	Journal  *journal.Journal
	Streamer *ws.Streamer
	Router   *logging.Router
	Metrics  telemetry.Metrics

	logger  telemetry.Logger
	closers []io.Closer
}

// LoadConfig reads the file at path (or the defaults), applies environment
// overrides and validates the result.
func LoadConfig(path string, lookup config.LookupFunc) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyLookup(lookup); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Build wires logging, the journal, the world and the loop for cfg and
// spawns the configured bodies.
func Build(ctx context.Context, cfg config.Config, opts Options) (*Simulation, error) {
	telemetryLogger := opts.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	severity, err := cfg.Severity()
	if err != nil {
		return nil, err
	}
	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = severity
	logConfig.Fields = map[string]any{"tickRate": cfg.Loop.TickRate}

	logOutput := opts.LogOutput
	if logOutput == nil {
		logOutput = os.Stderr
	}
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(logOutput),
	}

	s := &Simulation{Config: cfg, logger: telemetryLogger}
	if cfg.Logging.JSONPath != "" {
		file, err := os.Create(cfg.Logging.JSONPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open json log: %w", err)
		}
		s.closers = append(s.closers, file)
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		logConfig.JSON.FilePath = cfg.Logging.JSONPath
		sinks["json"] = loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, fallbackLogger, sinks)
	if err != nil {
		s.closeFiles()
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}
	s.Router = router
	s.Metrics = telemetry.WrapMetrics(router.Metrics())

	capacity, maxAge := cfg.JournalRetention()
	s.Journal = journal.New(capacity, maxAge)
	s.Journal.AttachTelemetry(telemetry.KeyframeEvictions{Metrics: s.Metrics})

	level, err := cfg.BuildLevel()
	if err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("failed to build level: %w", err)
	}
	s.World, err = world.New(level, cfg.WorldConfig(), world.Deps{
		Publisher: router,
		Metrics:   s.Metrics,
		Journal:   s.Journal,
	})
	if err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("failed to construct world: %w", err)
	}

	for _, placement := range cfg.Bodies {
		b, err := s.World.Spawn(ctx, placement.ID, geom.Vec2{placement.X, placement.Y}, geom.Vec2{placement.Width, placement.Height})
		if err != nil {
			s.Close(ctx)
			return nil, fmt.Errorf("failed to spawn %q: %w", placement.ID, err)
		}
		b.Velocity = geom.Vec2{placement.VX, placement.VY}
	}

	s.Streamer = ws.NewStreamer(telemetryLogger, s.Metrics)
	journalRef := s.Journal
	streamer := s.Streamer
	s.Loop = s.newLoop(router, func(result sim.LoopStepResult) {
		streamer.BroadcastStep(journalRef, result)
	})
	return s, nil
}

func (s *Simulation) newLoop(publisher logging.Publisher, afterStep func(sim.LoopStepResult)) *sim.Loop {
	return sim.NewLoop(s.World, s.Config.LoopConfig(), sim.Deps{
		Logger:    s.logger,
		Metrics:   s.Metrics,
		Publisher: publisher,
	}, sim.LoopHooks{AfterStep: afterStep})
}

// RunTicks advances the loop n times as fast as possible.
func (s *Simulation) RunTicks(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if _, err := s.Loop.Advance(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Serve runs the loop in real time and exposes the HTTP surface until ctx is
// cancelled.
func (s *Simulation) Serve(ctx context.Context) error {
	known := make(map[string]struct{}, len(s.Config.Bodies))
	for _, b := range s.Config.Bodies {
		known[b.ID] = struct{}{}
	}
	handler := ws.NewHandler(s.Streamer, ws.HandlerConfig{
		Logger:  s.logger,
		Journal: s.Journal,
		Queue:   s.Loop,
		HasActor: func(id string) bool {
			_, ok := known[id]
			return ok
		},
	})

	var metrics *logging.Metrics
	if s.Router != nil {
		metrics = s.Router.Metrics()
	}
	srv := &http.Server{
		Addr: s.Config.Stream.Addr,
		Handler: servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
			Logger:        s.logger,
			Journal:       s.Journal,
			Streamer:      s.Streamer,
			Websocket:     handler,
			WebsocketPath: s.Config.Stream.Path,
			Metrics:       metrics,
			TickRate:      s.Loop.Config().TickRate,
			Observability: observability.Config{EnablePprof: s.Config.Stream.EnablePprof},
		}),
	}

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	loopErr := make(chan error, 1)
	go func() { loopErr <- s.Loop.Run(loopCtx) }()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Printf("server listening on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-loopErr:
		runErr = err
		loopErr = nil
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
		serveErr = nil
	}

	cancelLoop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serveErr != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}
	if loopErr != nil {
		if err := <-loopErr; err != nil && runErr == nil {
			runErr = err
		}
	}
	s.Streamer.Close()
	return runErr
}

// Close drains the logging router and closes any opened log files.
func (s *Simulation) Close(ctx context.Context) {
	if s.Router != nil {
		if err := s.Router.Close(ctx); err != nil {
			s.logger.Printf("failed to close logging router: %v", err)
		}
	}
	s.closeFiles()
}

func (s *Simulation) closeFiles() {
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			s.logger.Printf("failed to close log file: %v", err)
		}
	}
	s.closers = nil
}

// Run loads the configuration, builds the simulation and either serves it or
// advances it opts.Ticks times and writes the final snapshot to opts.Output.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts.ConfigPath, opts.Lookup)
	if err != nil {
		return err
	}
	simulation, err := Build(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer simulation.Close(ctx)

	if opts.Serve {
		return simulation.Serve(ctx)
	}

	if err := simulation.RunTicks(ctx, opts.Ticks); err != nil {
		return err
	}
	if opts.Output == nil {
		return nil
	}
	encoder := json.NewEncoder(opts.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(simulation.World.Snapshot())
}
