// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue()
	q.Start()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		assert.True(t, q.Add(func() { got = append(got, i) }))
	}
	q.Stop()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	assert.False(t, q.Add(func() {}))
	q.Stop()
}

func TestQueueStopWithoutStart(t *testing.T) {
	q := NewQueue()
	q.Stop()
	assert.False(t, q.Add(func() {}))
}

func TestQueueAddBeforeStart(t *testing.T) {
	q := NewQueue()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, q.Add(func() { got = append(got, i) }))
	}
	assert.Empty(t, got)

	q.Start()
	q.Stop()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueAddFromScheduledCall(t *testing.T) {
	q := NewQueue()
	q.Start()
	defer q.Stop()

	release := make(chan struct{})
	done := make(chan struct{})
	q.Add(func() { <-release })
	q.Add(func() {
		for i := 0; i < 50; i++ {
			q.Add(func() {})
		}
		q.Add(func() { close(done) })
	})
	// a call still running must not hold up other callers of Add
	for i := 0; i < 50; i++ {
		assert.True(t, q.Add(func() {}))
	}
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled calls did not run")
	}
}
