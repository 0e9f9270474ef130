package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/semaphore"
)

func TestWithDeviceRunsTransactionToCompletion(t *testing.T) {
	c := &Controller{lock: semaphore.NewWeighted(1)}
	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	err := c.withDevice(ctx, func(Device) error {
		cancel()
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)

	err = c.withDevice(ctx, func(Device) error {
		t.Fatal("ran with canceled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
