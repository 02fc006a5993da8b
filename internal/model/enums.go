package model

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusConfirmed PurchaseStatus = "confirmed"
	PurchaseStatusRejected  PurchaseStatus = "rejected"
)

type ModificationStatus string

const (
	ModificationStatusPending  ModificationStatus = "pending"
	ModificationStatusDeclined ModificationStatus = "declined"
)

type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusCompleted SyncStatus = "completed"
)

// PurchaseStatuses lists the valid listing filters.
var PurchaseStatuses = []string{
	string(PurchaseStatusPending),
	string(PurchaseStatusConfirmed),
	string(PurchaseStatusRejected),
}
