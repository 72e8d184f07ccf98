package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldTask(t *testing.T) {
	var got []float64
	begin := time.Now()
	err := HoldTask(120*time.Millisecond).Run(context.Background(), func(p float64) {
		got = append(got, p)
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(begin), 120*time.Millisecond)
	require.NotEmpty(t, got)
	assert.Equal(t, 100.0, got[len(got)-1])
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
}

func TestHoldTask_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := HoldTask(time.Minute).Run(ctx, func(float64) {})
	require.ErrorIs(t, err, context.Canceled)
}
