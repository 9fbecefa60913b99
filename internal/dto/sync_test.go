package dto

import (
	"testing"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestToSyncOptionsDefaultsUnsetFieldsToTrue(t *testing.T) {
	opts := TriggerSyncRequest{}.ToSyncOptions()

	assert.Equal(t, domain.SyncOptions{
		SyncTransactions:    true,
		SyncInvestments:     true,
		RunAICategorization: true,
	}, opts)
}

func TestToSyncOptionsHonorsExplicitFalse(t *testing.T) {
	req := TriggerSyncRequest{
		SyncInvestments:     boolPtr(false),
		RunAICategorization: boolPtr(false),
	}

	opts := req.ToSyncOptions()

	assert.True(t, opts.SyncTransactions)
	assert.False(t, opts.SyncInvestments)
	assert.False(t, opts.RunAICategorization)
}
