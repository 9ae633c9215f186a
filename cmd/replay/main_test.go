package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseCapacities(t *testing.T) {
	t.Parallel()

	got, err := parseCapacities("1000, 10k,2M,1_500")
	require.NoError(t, err)
	assert.Equal(t, []int{1000, 10_000, 2_000_000, 1500}, got)

	for _, bad := range []string{"", ",", "abc", "0", "-5", "1k5"} {
		_, err := parseCapacities(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseConfig_Validation(t *testing.T) {
	t.Setenv(envHTTP, "")
	t.Setenv(envLogLevel, "")

	_, err := parseConfig([]string{"-caps", "100", "-zipf_s", "1"}, io.Discard)
	assert.Error(t, err)

	_, err = parseConfig([]string{"-caps", "100", "-hold"}, io.Discard)
	assert.Error(t, err)

	_, err = parseConfig([]string{"-caps", "100", "-log_level", "loud"}, io.Discard)
	assert.Error(t, err)

	_, err = parseConfig([]string{"-caps", "100", "-rate", "-1"}, io.Discard)
	assert.Error(t, err)

	// The same capacity twice would register two caches under one name.
	_, err = parseConfig([]string{"-caps", "1000,1k"}, io.Discard)
	assert.Error(t, err)

	// Synthetic stream settings are ignored when reading from a file.
	cfg, err := parseConfig([]string{"-caps", "100", "-batch", "0", "-input", "keys.txt", "-requests", "0"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Batch)
	assert.Equal(t, "keys.txt", cfg.Input)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv(envHTTP, ":9999")
	t.Setenv(envLogLevel, "debug")

	cfg, err := parseConfig(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []int{10_000, 100_000}, cfg.Capacities)

	// Flags win over the environment.
	cfg, err = parseConfig([]string{"-http", ":1234"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.HTTPAddr)

	// -hold is valid once an address is known.
	_, err = parseConfig([]string{"-hold"}, io.Discard)
	assert.NoError(t, err)
}

func collect(out *[]uint64) emitFunc {
	return func(_ context.Context, batch []uint64) error {
		*out = append(*out, batch...)
		return nil
	}
}

func TestReadKeys(t *testing.T) {
	t.Parallel()

	in := "a\n\n  b \nc\na\n"
	var got []uint64
	n, err := readKeys(context.Background(), strings.NewReader(in), 2, collect(&got))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, got, 4)
	assert.Equal(t, got[0], got[3], "same key, same fingerprint")
	assert.NotEqual(t, got[0], got[1])
}

func TestReadKeys_EmitError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	emit := func(ctx context.Context, _ []uint64) error { return ctx.Err() }

	_, err := readKeys(ctx, strings.NewReader("a\nb\n"), 1, emit)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestZipfKeys_Deterministic(t *testing.T) {
	t.Parallel()

	zc := zipfConfig{Requests: 5000, Keys: 1000, S: 1.2, V: 1, Seed: 7}
	var a, b []uint64
	n, err := zipfKeys(context.Background(), zc, 333, collect(&a))
	require.NoError(t, err)
	assert.Equal(t, 5000, n)
	_, err = zipfKeys(context.Background(), zc, 333, collect(&b))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	cfg := &config{
		Capacities:     []int{100, 1000},
		Zipf:           zipfConfig{Requests: 20_000, Keys: 500, S: 1.1, V: 1, Seed: 1},
		HorizonBuckets: 4,
		Batch:          256,
	}
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, zap.NewNop(), &out))

	report := out.String()
	assert.Contains(t, report, "requests=20000")
	assert.Contains(t, report, "cap_100")
	assert.Contains(t, report, "cap_1000")
	assert.Contains(t, report, "+Inf%")
}

func TestRun_InputFileMissing(t *testing.T) {
	t.Parallel()

	cfg := &config{Capacities: []int{10}, Input: "/nonexistent/keys.txt", Batch: 8}
	err := run(context.Background(), cfg, zap.NewNop(), io.Discard)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	_, err := newLogger(&config{LogLevel: "debug"})
	require.NoError(t, err)
	_, err = newLogger(&config{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "replay.log")
	log, err := newLogger(&config{LogLevel: "info", LogFile: path, LogMaxSize: 1})
	require.NoError(t, err)
	log.Info("hello", zap.Int("n", 1))
	require.NoError(t, log.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
}

func TestThrottled(t *testing.T) {
	t.Parallel()

	var got []uint64
	emit := collect(&got)
	assert.NotNil(t, throttled(0, 10, emit))

	// A burst-sized batch passes immediately; the next one must wait.
	th := throttled(100, 100, emit)
	start := time.Now()
	require.NoError(t, th(context.Background(), make([]uint64, 100)))
	require.NoError(t, th(context.Background(), make([]uint64, 20)))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Len(t, got, 120)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, th(ctx, make([]uint64, 10)), context.Canceled)
}
