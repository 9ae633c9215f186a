package main

import (
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/IvanBrykalov/cachesim/cache"
)

// Environment overrides for flags that usually differ per deployment.
const (
	envHTTP     = "CACHESIM_HTTP"
	envLogLevel = "CACHESIM_LOG_LEVEL"
)

// zipfConfig drives the synthetic key stream.
type zipfConfig struct {
	Requests int     `validate:"gt=0"`
	Keys     uint64  `validate:"gte=2"`
	S        float64 `validate:"gt=1"`
	V        float64 `validate:"gte=1"`
	Seed     int64
}

type config struct {
	Capacities []int `validate:"min=1,unique,dive,gt=0"`

	// Key source: a file (one key per line, "-" for stdin) or, when empty,
	// a synthetic Zipf stream.
	Input string
	Zipf  zipfConfig

	HorizonBuckets int           `validate:"gte=0"`
	HorizonSlice   time.Duration `validate:"gte=0"`
	Batch          int
	// Rate caps replayed requests per second; 0 = as fast as possible.
	Rate float64 `validate:"gte=0"`

	HTTPAddr  string `validate:"required_if=Hold true"`
	PprofAddr string
	Hold      bool

	LogLevel string `validate:"oneof=debug info warn error dpanic panic fatal"`
	// LogFile, when set, receives logs through a size-rotated file
	// instead of stderr.
	LogFile    string
	LogMaxSize int `validate:"gte=0"`
}

var validate = validator.New()

func parseConfig(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		caps = fs.String("caps", "10000,100000", "comma-separated simulated capacities (entries); each reserves ~72 bytes per entry of horizon memory up front")

		input    = fs.String("input", "", "key file, one key per line ('-' = stdin); empty = synthetic Zipf stream")
		requests = fs.Int("requests", 1_000_000, "synthetic stream length")
		keys     = fs.Uint64("keys", 1_000_000, "synthetic keyspace size")
		zipfS    = fs.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV    = fs.Float64("zipf_v", 1.0, "Zipf v >= 1")
		seed     = fs.Int64("seed", 1, "random seed")

		hBuckets = fs.Int("horizon_buckets", cache.DefaultHorizonBuckets, "long-horizon ring length")
		hSlice   = fs.Duration("horizon_slice", cache.DefaultHorizonSlice, "time each horizon bucket stays current")
		batch    = fs.Int("batch", 1024, "keys per batch handed to each simulator")
		rps      = fs.Float64("rate", 0, "replay at most this many requests/s (0 = unlimited)")

		httpAddr  = fs.String("http", envOr(envHTTP, ""), "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
		pprofAddr = fs.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		hold      = fs.Bool("hold", false, "keep serving metrics after the replay until interrupted")

		logLevel   = fs.String("log_level", envOr(envLogLevel, "info"), "log level: debug | info | warn | error")
		logFile    = fs.String("log_file", "", "write logs to this file with size-based rotation; empty = stderr")
		logMaxSize = fs.Int("log_max_size", 100, "rotate the log file after this many megabytes")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cs, err := parseCapacities(*caps)
	if err != nil {
		return nil, err
	}
	cfg := &config{
		Capacities: cs,
		Input:      *input,
		Zipf: zipfConfig{
			Requests: *requests,
			Keys:     *keys,
			S:        *zipfS,
			V:        *zipfV,
			Seed:     *seed,
		},
		HorizonBuckets: *hBuckets,
		HorizonSlice:   *hSlice,
		Batch:          *batch,
		Rate:           *rps,
		HTTPAddr:       *httpAddr,
		PprofAddr:      *pprofAddr,
		Hold:           *hold,
		LogLevel:       *logLevel,
		LogFile:        *logFile,
		LogMaxSize:     *logMaxSize,
	}
	return cfg, cfg.validate()
}

func (c *config) validate() error {
	if c.Batch <= 0 {
		c.Batch = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if err := validate.StructExcept(c, "Zipf"); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Input == "" {
		if err := validate.Struct(c.Zipf); err != nil {
			return errors.Wrap(err, "invalid synthetic stream")
		}
	}
	return nil
}

// parseCapacities parses "1000,10k,1m" style lists.
func parseCapacities(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		mult := 1
		switch {
		case strings.HasSuffix(f, "k"), strings.HasSuffix(f, "K"):
			mult, f = 1_000, f[:len(f)-1]
		case strings.HasSuffix(f, "m"), strings.HasSuffix(f, "M"):
			mult, f = 1_000_000, f[:len(f)-1]
		}
		n, err := strconv.Atoi(strings.ReplaceAll(f, "_", ""))
		if err != nil {
			return nil, errors.Wrapf(err, "capacity %q", f)
		}
		if n <= 0 {
			return nil, errors.Errorf("capacity must be > 0, got %d", n)
		}
		out = append(out, n*mult)
	}
	if len(out) == 0 {
		return nil, errors.New("no capacities given")
	}
	return out, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
