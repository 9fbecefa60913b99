package dto

import "github.com/cpenarrieta/finsight/internal/core/domain"

// TriggerSyncRequest selects which engines a manual sync pass runs.
// Unset fields default to true.
type TriggerSyncRequest struct {
	SyncTransactions    *bool `json:"syncTransactions"`
	SyncInvestments     *bool `json:"syncInvestments"`
	RunAICategorization *bool `json:"runAICategorization"`
}

// ToSyncOptions converts the request to domain options.
func (r TriggerSyncRequest) ToSyncOptions() domain.SyncOptions {
	orTrue := func(v *bool) bool {
		return v == nil || *v
	}
	return domain.SyncOptions{
		SyncTransactions:    orTrue(r.SyncTransactions),
		SyncInvestments:     orTrue(r.SyncInvestments),
		RunAICategorization: orTrue(r.RunAICategorization),
	}
}
