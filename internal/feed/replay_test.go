package feed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

func captureFile(t *testing.T, records []TickRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	rec, err := NewRecorder(path)
	require.NoError(t, err)
	for _, record := range records {
		require.NoError(t, rec.Append(record))
	}
	require.NoError(t, rec.Close())
	return path
}

func sampleTicks() []TickRecord {
	return []TickRecord{
		{Timestamp: 1000, Symbol: "AAPL", TickKind: enum.TickKindLast, Price: 100.5},
		{Timestamp: 2000, Symbol: "MSFT", TickKind: enum.TickKindBid, Price: 401.2},
		{Timestamp: 3000, Symbol: "AAPL", TickKind: enum.TickKindAsk, Price: 100.7},
	}
}

func TestReplayRoundTrip(t *testing.T) {
	path := captureFile(t, sampleTicks())

	replay, err := NewReplay(ReplayConfig{Path: path})
	require.NoError(t, err)

	var got []TickRecord
	total, err := replay.Run(context.Background(), func(rec TickRecord) error {
		got = append(got, rec)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, sampleTicks(), got)
}

func TestReplaySymbolFilter(t *testing.T) {
	path := captureFile(t, sampleTicks())

	replay, err := NewReplay(ReplayConfig{Path: path, Symbols: []string{"AAPL"}})
	require.NoError(t, err)

	var symbols []string
	total, err := replay.Run(context.Background(), func(rec TickRecord) error {
		symbols = append(symbols, rec.Symbol)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"AAPL", "AAPL"}, symbols)
}

func TestReplaySinceFilter(t *testing.T) {
	path := captureFile(t, sampleTicks())

	replay, err := NewReplay(ReplayConfig{Path: path, Since: 2000})
	require.NoError(t, err)

	total, err := replay.Run(context.Background(), func(TickRecord) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestReplayRejectsBadConfig(t *testing.T) {
	_, err := NewReplay(ReplayConfig{})
	assert.Error(t, err)

	_, err = NewReplay(ReplayConfig{Path: "x.jsonl", Speed: -1})
	assert.Error(t, err)
}
