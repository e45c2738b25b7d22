package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJobEmptySpecIsDisabled(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("refresh", "", func() error {
		t.Fatal("disabled job must never run")
		return nil
	})
	assert.NoError(t, err)
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("refresh", "not a cron spec", func() error { return nil })
	assert.Error(t, err)
}

func TestJobRuns(t *testing.T) {
	s := New(zerolog.Nop())

	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "@every 100ms", func() error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 2*time.Second, 50*time.Millisecond)
}
