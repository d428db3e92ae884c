package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kamilpitula/platformer/internal/app"
)

func main() {
	var (
		configPath string
		envFile    string
		ticks      int
		serve      bool
	)
	flag.StringVar(&configPath, "config", "", "TOML config file (defaults to the demo level)")
	flag.StringVar(&envFile, "env", ".env", "optional dotenv file with PLATFORMER_* overrides")
	flag.IntVar(&ticks, "ticks", 300, "ticks to simulate in headless mode")
	flag.BoolVar(&serve, "serve", false, "run in real time and stream keyframes over websocket")
	flag.Parse()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("failed to load %s: %v", envFile, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{
		ConfigPath: configPath,
		Ticks:      ticks,
		Serve:      serve,
		Output:     os.Stdout,
	}
	if err := app.Run(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
}
