package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"github.com/robinmaple/trading-automation-sub002/pkg/scanner"
)

// Raw JSON keys probed before a row is fully decoded.
var (
	keySymbol    = []byte(`"symbol"`)
	keyTimestamp = []byte(`"ts"`)
)

// ReplayConfig controls tick playback behavior.
type ReplayConfig struct {
	Path string

	// Speed paces playback against recorded timestamps.
	// 1 is real time, 0 disables pacing entirely.
	Speed float64

	// Symbols restricts playback to the named symbols when non-empty.
	Symbols []string

	// Since drops records stamped before it, in unix nanoseconds.
	Since int64
}

// Clock allows deterministic playback control in tests.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Replay reads a JSONL tick capture and feeds records to a handler,
// typically the price tracker's tick entry point.
type Replay struct {
	cfg     ReplayConfig
	symbols map[string]struct{}
	clock   Clock
}

// NewReplay validates the config and creates a replay engine.
func NewReplay(cfg ReplayConfig) (*Replay, error) {
	if cfg.Path == "" {
		return nil, errors.New("replay path is empty")
	}
	if cfg.Speed < 0 {
		return nil, errors.New("replay speed must be >= 0")
	}

	var symbols map[string]struct{}
	if len(cfg.Symbols) > 0 {
		symbols = make(map[string]struct{}, len(cfg.Symbols))
		for _, s := range cfg.Symbols {
			symbols[s] = struct{}{}
		}
	}
	return &Replay{cfg: cfg, symbols: symbols, clock: realClock{}}, nil
}

// WithClock swaps the clock implementation.
func (r *Replay) WithClock(clock Clock) *Replay {
	if clock != nil {
		r.clock = clock
	}
	return r
}

// Run replays records in file order. Malformed rows are skipped and
// counted in the returned total's complement; a handler error stops
// the replay.
func (r *Replay) Run(ctx context.Context, handler func(TickRecord) error) (int, error) {
	if handler == nil {
		return 0, errors.New("replay handler is nil")
	}

	file, err := os.Open(r.cfg.Path)
	if err != nil {
		return 0, errors.Wrap(err, "open capture file")
	}
	defer file.Close()

	var (
		prevTS int64
		total  int
	)
	lines := bufio.NewScanner(file)
	for lines.Scan() {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		line := lines.Bytes()
		if len(line) == 0 {
			continue
		}
		if r.skip(line) {
			continue
		}

		var rec TickRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}

		if r.cfg.Speed > 0 && prevTS != 0 && rec.Timestamp > prevTS {
			gap := time.Duration(float64(rec.Timestamp-prevTS) / r.cfg.Speed)
			if err := r.clock.Sleep(ctx, gap); err != nil {
				return total, err
			}
		}
		prevTS = rec.Timestamp

		if err := handler(rec); err != nil {
			return total, err
		}
		total++
	}
	if err := lines.Err(); err != nil {
		return total, errors.Wrap(err, "scan capture file")
	}
	return total, nil
}

// skip filters a raw row by symbol and timestamp without paying for a
// full decode on rows that will be discarded anyway.
func (r *Replay) skip(line []byte) bool {
	if r.symbols != nil {
		symbol, ok := scanner.ScanStringField(line, keySymbol)
		if !ok {
			return true
		}
		if _, want := r.symbols[string(symbol)]; !want {
			return true
		}
	}
	if r.cfg.Since > 0 {
		ts, ok := scanner.ScanUintField(line, keyTimestamp)
		if !ok || int64(ts) < r.cfg.Since {
			return true
		}
	}
	return false
}
