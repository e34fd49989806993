package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanStringField(t *testing.T) {
	payload := []byte(`{"ts":1700000000,"symbol":"EUR.USD","price":1.0852}`)

	v, ok := ScanStringField(payload, []byte(`"symbol"`))
	assert.True(t, ok)
	assert.Equal(t, "EUR.USD", string(v))

	_, ok = ScanStringField(payload, []byte(`"missing"`))
	assert.False(t, ok)

	// Numeric value under a string scan fails.
	_, ok = ScanStringField(payload, []byte(`"ts"`))
	assert.False(t, ok)
}

func TestScanUintField(t *testing.T) {
	payload := []byte(`{"ts": 1700000000, "symbol":"AAPL"}`)

	v, ok := ScanUintField(payload, []byte(`"ts"`))
	assert.True(t, ok)
	assert.Equal(t, uint64(1700000000), v)

	_, ok = ScanUintField(payload, []byte(`"symbol"`))
	assert.False(t, ok)
}
