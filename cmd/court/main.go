package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Court-Sense/internal/config"
	"github.com/Garsondee/Court-Sense/internal/game"
	"github.com/Garsondee/Court-Sense/internal/logging"
	"github.com/Garsondee/Court-Sense/internal/view"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	thoughts := game.NewThoughtLog()
	sim := game.NewSim(cfg.SimOptions(game.WithLogger(logger), game.WithThoughts(thoughts))...)
	g := view.New(sim, thoughts, logger)
	logger.Info("court viewer starting", zap.Int64("seed", cfg.Sim.Seed), zap.String("profile", cfg.Sim.Profile))

	ebiten.SetWindowTitle("Court Sense")
	ebiten.SetWindowSize(g.WindowSize())
	ebiten.SetTPS(cfg.Sim.TickRate)
	if err := ebiten.RunGame(g); err != nil {
		logger.Fatal("viewer exited", zap.Error(err))
	}
}
