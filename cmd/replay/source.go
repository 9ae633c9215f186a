package main

import (
	"bufio"
	"context"
	"io"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/IvanBrykalov/cachesim/internal/util"
)

// emitFunc receives a batch of fingerprints. The batch must not be modified
// after it is emitted; consumers share it read-only.
type emitFunc func(ctx context.Context, batch []uint64) error

// readKeys streams one key per line from r, skipping blank lines.
func readKeys(ctx context.Context, r io.Reader, batch int, emit emitFunc) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	n := 0
	buf := make([]uint64, 0, batch)
	for sc.Scan() {
		key := strings.TrimSpace(sc.Text())
		if key == "" {
			continue
		}
		buf = append(buf, util.MustFingerprint(key))
		n++
		if len(buf) == batch {
			if err := emit(ctx, buf); err != nil {
				return n, err
			}
			buf = make([]uint64, 0, batch)
		}
	}
	if err := sc.Err(); err != nil {
		return n, errors.Wrap(err, "read keys")
	}
	if len(buf) > 0 {
		if err := emit(ctx, buf); err != nil {
			return n, err
		}
	}
	return n, nil
}

// zipfKeys emits a deterministic Zipf-distributed key stream.
func zipfKeys(ctx context.Context, zc zipfConfig, batch int, emit emitFunc) (int, error) {
	r := rand.New(rand.NewSource(zc.Seed))
	z := rand.NewZipf(r, zc.S, zc.V, zc.Keys-1)

	n := 0
	for n < zc.Requests {
		size := min(batch, zc.Requests-n)
		buf := make([]uint64, size)
		for i := range buf {
			buf[i] = util.MustFingerprint(z.Uint64())
		}
		if err := emit(ctx, buf); err != nil {
			return n, err
		}
		n += size
	}
	return n, nil
}

// throttled wraps emit so that at most rps fingerprints pass per second.
// Horizon rotation follows wall time, so a throttled replay spreads a
// recorded trace over its original duration.
func throttled(rps float64, batch int, emit emitFunc) emitFunc {
	if rps <= 0 {
		return emit
	}
	lim := rate.NewLimiter(rate.Limit(rps), max(batch, int(rps)))
	return func(ctx context.Context, b []uint64) error {
		if err := lim.WaitN(ctx, len(b)); err != nil {
			return errors.Wrap(err, "rate limit")
		}
		return emit(ctx, b)
	}
}
