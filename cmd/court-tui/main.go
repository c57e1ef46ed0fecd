package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Court-Sense/internal/config"
	"github.com/Garsondee/Court-Sense/internal/game"
	"github.com/Garsondee/Court-Sense/internal/logging"
	"github.com/Garsondee/Court-Sense/internal/tui"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file")
	mute := flag.Bool("mute", false, "no tone on caught passes")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// The terminal belongs to the court; only errors go to stderr.
	logger := logging.Must("error", "console")

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	var bell tui.Bell
	if !*mute {
		tone, err := tui.NewTone()
		if err != nil {
			// Non-fatal, the court runs without sound.
			logger.Warn("audio unavailable", zap.Error(err))
		} else {
			defer tone.Close()
			bell = tone
		}
	}

	sim := game.NewSim(cfg.SimOptions(game.WithLogger(logger))...)
	tui.New(screen, sim, bell, logger).Run()
}
