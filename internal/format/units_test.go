package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{47396659, "45.2 MB"},
		{2 * 1024 * 1024 * 1024, "2.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bytes(tt.in), "Bytes(%d)", tt.in)
	}
}

func TestCPUPercent(t *testing.T) {
	pct, ok := CPUPercent(200000000, 10000000000, 4)
	assert.True(t, ok)
	assert.Equal(t, "8.0%", Percent(pct))

	_, ok = CPUPercent(100, 0, 4)
	assert.False(t, ok, "zero system delta")

	_, ok = CPUPercent(100, 1000, 0)
	assert.False(t, ok, "no cpus")

	pct, ok = CPUPercent(5000, 1000, 2)
	assert.True(t, ok)
	assert.Equal(t, 200.0, pct, "clamped to cpus*100")
}

func TestAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2 hours ago", Ago(now.Add(-2*time.Hour), now))
	assert.Empty(t, Ago(time.Time{}, now))
}
