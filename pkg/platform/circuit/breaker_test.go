package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker(t *testing.T) {
	t.Run("opens after consecutive failures", func(t *testing.T) {
		b := New("sink", WithFailureThreshold(3))
		assert.False(t, b.RecordFailure())
		assert.False(t, b.RecordFailure())
		assert.True(t, b.RecordFailure())
		assert.True(t, b.IsOpen())
		assert.False(t, b.RecordFailure(), "already open")
	})

	t.Run("success while closed resets the streak", func(t *testing.T) {
		b := New("sink", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		assert.False(t, b.RecordFailure())
		assert.False(t, b.IsOpen())
	})

	t.Run("closes after consecutive successes", func(t *testing.T) {
		b := New("sink", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()
		assert.False(t, b.RecordSuccess())
		b.RecordFailure()
		assert.False(t, b.RecordSuccess(), "a failure restarts the success count")
		assert.True(t, b.RecordSuccess())
		assert.False(t, b.IsOpen())
	})

	t.Run("ignores non-positive thresholds", func(t *testing.T) {
		b := New("sink", WithFailureThreshold(0), WithSuccessThreshold(-1))
		assert.Equal(t, defaultFailureThreshold, b.failureThreshold)
		assert.Equal(t, defaultSuccessThreshold, b.successThreshold)
		assert.Equal(t, "sink", b.Name())
	})
}
