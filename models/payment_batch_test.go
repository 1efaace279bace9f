package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchStatus_CanTransitionTo(t *testing.T) {
	allowed := map[BatchStatus][]BatchStatus{
		BatchStatusPending:    {BatchStatusProcessing},
		BatchStatusProcessing: {BatchStatusCompleted, BatchStatusFailed},
		BatchStatusCompleted:  {},
		BatchStatusFailed:     {},
	}

	all := []BatchStatus{BatchStatusPending, BatchStatusProcessing, BatchStatusCompleted, BatchStatusFailed}

	for from, targets := range allowed {
		legal := make(map[BatchStatus]bool)
		for _, to := range targets {
			legal[to] = true
		}
		for _, to := range all {
			assert.Equal(t, legal[to], from.CanTransitionTo(to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestBatchStatus_IsTerminal(t *testing.T) {
	assert.False(t, BatchStatusPending.IsTerminal())
	assert.False(t, BatchStatusProcessing.IsTerminal())
	assert.True(t, BatchStatusCompleted.IsTerminal())
	assert.True(t, BatchStatusFailed.IsTerminal())
}
