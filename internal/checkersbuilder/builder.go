package checkersbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-checkers/internal/config"
	"github.com/park285/cheese-checkers/internal/engine"
	"github.com/park285/cheese-checkers/internal/events"
	"github.com/park285/cheese-checkers/internal/msgcat"
	"github.com/park285/cheese-checkers/internal/playserver"
	"github.com/park285/cheese-checkers/internal/render"
	"github.com/park285/cheese-checkers/internal/session"
	"go.uber.org/zap"
)

const redisDialTimeout = 5 * time.Second

type Deps struct {
	Server   *playserver.Server
	Manager  *session.Manager
	Bus      events.Bus
	Searcher *engine.Searcher
	Catalog  *msgcat.Catalog
	Defaults session.Config
}

// Close stops every session and releases the bus.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	if d.Manager != nil {
		d.Manager.Close()
	}
	if d.Bus != nil {
		return d.Bus.Close()
	}
	return nil
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cfg.RegisterPresets(); err != nil {
		return nil, fmt.Errorf("register presets: %w", err)
	}
	defaults, err := SessionDefaults(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	// Bus (Redis optional)
	var bus events.Bus
	if strings.TrimSpace(cfg.RedisURL) != "" {
		dctx, cancel := context.WithTimeout(ctx, redisDialTimeout)
		rb, rerr := events.NewRedisBus(dctx, cfg.RedisURL, logger.Named("events"))
		cancel()
		if rerr != nil {
			return nil, fmt.Errorf("init redis bus: %w", rerr)
		}
		bus = rb
	} else {
		logger.Info("REDIS_URL not set; using in-process event bus")
		bus = events.NewMemoryBus(logger.Named("events"))
	}

	searcher := engine.NewSearcher(engine.WithLogger(logger.Named("engine")))
	mgr := session.NewManager(searcher, session.RealScheduler(), cfg.SessionTTL, logger.Named("session"))

	srv := playserver.New(playserver.Deps{
		Manager:  mgr,
		Bus:      bus,
		Renderer: render.NewBoardRenderer(),
		Catalog:  cat,
		Logger:   logger.Named("http"),
		Defaults: defaults,
	})

	return &Deps{
		Server:   srv,
		Manager:  mgr,
		Bus:      bus,
		Searcher: searcher,
		Catalog:  cat,
		Defaults: defaults,
	}, nil
}

// SessionDefaults turns the app config into the seed for new sessions.
func SessionDefaults(cfg *config.AppConfig) (session.Config, error) {
	p, err := engine.GetPreset(cfg.DefaultPreset)
	if err != nil {
		return session.Config{}, err
	}
	limits, err := engine.LimitsFromPreset(p)
	if err != nil {
		return session.Config{}, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	sc := session.DefaultConfig()
	sc.AIPlayer = cfg.AIPlayer
	sc.Preset = p.Name
	sc.AILimits = limits
	sc.AutoMoveCountdown = cfg.AutoMoveCountdown
	sc.ContinuationDelay = cfg.ContinuationDelay
	if cfg.MaxAIIterations > 0 {
		sc.MaxAIIterations = cfg.MaxAIIterations
	}
	return sc, nil
}
