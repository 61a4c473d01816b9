package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayDuration(t *testing.T) {
	d := Delay{Min: 100 * time.Millisecond, Max: 300 * time.Millisecond}
	for i := 0; i < 50; i++ {
		got := d.Duration()
		assert.GreaterOrEqual(t, got, d.Min)
		assert.LessOrEqual(t, got, d.Max)
	}
}

func TestDelayDurationDegenerate(t *testing.T) {
	assert.Equal(t, time.Duration(0), Delay{}.Duration())
	assert.Equal(t, time.Second, Delay{Min: time.Second, Max: time.Second}.Duration())
	assert.Equal(t, time.Second, Delay{Min: time.Second, Max: time.Millisecond}.Duration())
}

func TestSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := Delay{Min: 10 * time.Second, Max: 10 * time.Second}
	start := time.Now()
	d.Sleep(ctx)
	assert.Less(t, time.Since(start), time.Second)
}

func TestZeroSleepsNothing(t *testing.T) {
	p := Zero()
	start := time.Now()
	p.SearchSettle.Sleep(context.Background())
	p.BetweenDetails.Sleep(context.Background())
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
