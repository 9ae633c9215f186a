// Command replay runs a key stream through simulated caches of several
// capacities and reports the hit rate each would have achieved. It exposes
// optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/IvanBrykalov/cachesim/cache"
	pmet "github.com/IvanBrykalov/cachesim/metrics/prom"
	"github.com/IvanBrykalov/cachesim/tracker"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error("replay failed", zap.Error(err))
		os.Exit(1)
	}
}

// newLogger builds a console logger on stderr, or a JSON logger on a
// size-rotated file when LogFile is set.
func newLogger(cfg *config) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFile == "" {
		zc := zap.NewProductionConfig()
		zc.Level = lvl
		zc.Encoding = "console"
		return zc.Build()
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: 3,
		Compress:   true,
	})
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, w, lvl)), nil
}

// sim is one simulated capacity and the channel feeding it.
type sim struct {
	name string
	tr   *tracker.Tracker[string]
	in   chan []uint64
}

func run(ctx context.Context, cfg *config, log *zap.Logger, out io.Writer) error {
	reg := prometheus.NewRegistry()
	col := pmet.NewCollector("", nil)
	reg.MustRegister(col)

	sims := make([]*sim, 0, len(cfg.Capacities))
	for _, capacity := range cfg.Capacities {
		name := "cap_" + strconv.Itoa(capacity)
		tr := tracker.New[string](cache.Options{
			Capacity:       capacity,
			HorizonBuckets: cfg.HorizonBuckets,
			HorizonSlice:   cfg.HorizonSlice,
			Metrics:        pmet.New(reg, "cachesim", "replay", prometheus.Labels{"cache_name": name}),
			Logger:         log.With(zap.String("cache_name", name)),
		})
		col.Add(name, tr)
		sims = append(sims, &sim{name: name, tr: tr, in: make(chan []uint64, 4)})
	}

	// ---- pprof / metrics servers ----
	srvCtx, stopServers := context.WithCancel(ctx)
	defer stopServers()
	servers, srvCtx := errgroup.WithContext(srvCtx)
	if cfg.PprofAddr != "" {
		serve(servers, srvCtx, log, "pprof", cfg.PprofAddr, http.DefaultServeMux)
	}
	if cfg.HTTPAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		serve(servers, srvCtx, log, "metrics", cfg.HTTPAddr, mux)
	}

	// ---- replay: one producer, one consumer per capacity ----
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sims {
		g.Go(func() error {
			for batch := range s.in {
				for _, fp := range batch {
					s.tr.InsertFingerprint(fp)
				}
			}
			return nil
		})
	}

	var total int
	g.Go(func() error {
		defer func() {
			for _, s := range sims {
				close(s.in)
			}
		}()
		emit := func(ctx context.Context, batch []uint64) error {
			for _, s := range sims {
				select {
				case s.in <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		}
		var err error
		total, err = produce(gctx, cfg, throttled(cfg.Rate, cfg.Batch, emit))
		return err
	})
	if err := g.Wait(); err != nil {
		stopServers()
		_ = servers.Wait()
		return err
	}
	elapsed := time.Since(start)
	log.Info("replay finished",
		zap.Int("requests", total),
		zap.Int("caches", len(sims)),
		zap.Duration("elapsed", elapsed),
	)

	report(out, sims, total, elapsed)

	if cfg.Hold {
		log.Info("holding metrics endpoint; interrupt to exit", zap.String("addr", cfg.HTTPAddr))
		<-srvCtx.Done()
	}
	stopServers()
	if err := servers.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func produce(ctx context.Context, cfg *config, emit emitFunc) (int, error) {
	switch cfg.Input {
	case "":
		return zipfKeys(ctx, cfg.Zipf, cfg.Batch, emit)
	case "-":
		return readKeys(ctx, os.Stdin, cfg.Batch, emit)
	default:
		f, err := os.Open(cfg.Input)
		if err != nil {
			return 0, err
		}
		defer func() { _ = f.Close() }()
		return readKeys(ctx, f, cfg.Batch, emit)
	}
}

// serve runs an HTTP server in g until ctx is done.
func serve(g *errgroup.Group, ctx context.Context, log *zap.Logger, what, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		log.Info("serving", zap.String("endpoint", what), zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// report prints one row per capacity: cumulative hit rate at every boundary.
func report(out io.Writer, sims []*sim, total int, elapsed time.Duration) {
	fmt.Fprintf(out, "requests=%d caches=%d elapsed=%v (%.0f req/s per cache)\n",
		total, len(sims), elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "cache\tmisses\t")
	for i := 0; i < cache.NumBuckets; i++ {
		fmt.Fprintf(tw, "%s%%\t", cache.BucketLabel(i))
	}
	fmt.Fprint(tw, "memory\t\n")

	for _, s := range sims {
		snap := s.tr.Snapshot()
		req := snap.Requests()
		fmt.Fprintf(tw, "%s\t%d\t", s.name, snap.Misses)
		for _, b := range tracker.CumulativeBuckets(snap) {
			rate := 0.0
			if req > 0 {
				rate = float64(b.Count) / float64(req) * 100
			}
			fmt.Fprintf(tw, "%.2f\t", rate)
		}
		fmt.Fprintf(tw, "%d\t\n", s.tr.MemoryUsage())
	}
	_ = tw.Flush()
}
