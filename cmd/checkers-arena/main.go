package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/cheese-checkers/internal/arena"
	"github.com/park285/cheese-checkers/internal/engine"
	"github.com/park285/cheese-checkers/internal/obslog"
	"go.uber.org/zap/zapcore"
)

type options struct {
	Games       int
	Concurrency int
	PresetA     string
	PresetB     string
	MaxPlies    int
	RandomPlies int
	Seed        int64
	Verbose     bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	flag.IntVar(&opts.Games, "games", 20, "number of games")
	flag.IntVar(&opts.Concurrency, "concurrency", 4, "number of workers")
	flag.StringVar(&opts.PresetA, "preset-a", "level3", "preset for engine A")
	flag.StringVar(&opts.PresetB, "preset-b", "level2", "preset for engine B")
	flag.IntVar(&opts.MaxPlies, "max-plies", 200, "plies before a game is scored a draw")
	flag.IntVar(&opts.RandomPlies, "random-plies", 4, "random opening plies per game")
	flag.Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "random seed")
	flag.BoolVar(&opts.Verbose, "v", false, "log every game")
	flag.Parse()

	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.InfoLevel
	}
	logger, closeLog, err := obslog.New(obslog.Options{Level: level, Console: true, Format: "console"})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	defer func() { _ = logger.Sync() }()

	a, err := player(opts.PresetA)
	if err != nil {
		return err
	}
	b, err := player(opts.PresetB)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s (%s) vs %s (%s), %d games, seed %d\n", a.Name, a.Limits, b.Name, b.Limits, opts.Games, opts.Seed)
	start := time.Now()
	summary, err := arena.Run(ctx, arena.Config{
		Games:       opts.Games,
		Concurrency: opts.Concurrency,
		A:           a,
		B:           b,
		MaxPlies:    opts.MaxPlies,
		RandomPlies: opts.RandomPlies,
		Seed:        opts.Seed,
	}, logger)
	fmt.Printf("%s: %s (%d games in %s)\n", a.Name, summary, summary.Games, time.Since(start).Round(time.Millisecond))
	return err
}

func player(preset string) (arena.Player, error) {
	p, err := engine.GetPreset(preset)
	if err != nil {
		return arena.Player{}, err
	}
	limits, err := engine.LimitsFromPreset(p)
	if err != nil {
		return arena.Player{}, err
	}
	return arena.Player{Name: p.Name, Limits: limits}, nil
}
