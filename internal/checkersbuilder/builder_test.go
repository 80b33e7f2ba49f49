package checkersbuilder

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/park285/cheese-checkers/internal/config"
	"github.com/park285/cheese-checkers/internal/engine"
	"github.com/park285/cheese-checkers/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		Addr:              ":0",
		DefaultPreset:     "level2",
		AIPlayer:          checkers.White,
		SessionTTL:        time.Hour,
		SweepInterval:     time.Minute,
		AutoMoveCountdown: 0,
		ContinuationDelay: 10 * time.Millisecond,
		MaxAIIterations:   7,
	}
}

func TestSessionDefaults(t *testing.T) {
	sc, err := SessionDefaults(baseConfig())
	require.NoError(t, err)
	assert.Equal(t, checkers.White, sc.AIPlayer)
	assert.Equal(t, "level2", sc.Preset)
	assert.Equal(t, engine.Limits{Depth: 2, TimeLimit: 500 * time.Millisecond, MaxNodes: 10000}, sc.AILimits)
	assert.Equal(t, 0, sc.AutoMoveCountdown)
	assert.Equal(t, 10*time.Millisecond, sc.ContinuationDelay)
	assert.Equal(t, 7, sc.MaxAIIterations)

	cfg := baseConfig()
	cfg.DefaultPreset = "nope"
	_, err = SessionDefaults(cfg)
	assert.Error(t, err)
}

func TestNewWithMemoryBus(t *testing.T) {
	deps, err := New(context.Background(), baseConfig(), nil)
	require.NoError(t, err)
	defer deps.Close()

	_, ok := deps.Bus.(*events.MemoryBus)
	assert.True(t, ok, "expected in-process bus, got %T", deps.Bus)

	ts := httptest.NewServer(deps.Server.Handler())
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewWithRedisBus(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := baseConfig()
	cfg.RedisURL = fmt.Sprintf("redis://%s/0", mr.Addr())
	deps, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer deps.Close()

	_, ok := deps.Bus.(*events.RedisBus)
	assert.True(t, ok, "expected redis bus, got %T", deps.Bus)
}

func TestNewRejectsUnreachableRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	cfg := baseConfig()
	cfg.RedisURL = "redis://" + addr
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewRegistersFilePresets(t *testing.T) {
	cfg := baseConfig()
	cfg.Presets = []engine.DifficultyPreset{{Name: "builder-blitz", DepthCap: 1, MoveTimeMillis: 50, NodeCap: 500}}
	cfg.DefaultPreset = "builder-blitz"
	deps, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer deps.Close()
	assert.Equal(t, "builder-blitz", deps.Defaults.Preset)
	assert.Equal(t, 1, deps.Defaults.AILimits.Depth)
}
