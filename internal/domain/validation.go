package domain

import "time"

// Validation is the 1:1 approve/reject workflow record for a signalement,
// independent of its operational status. Exactly one exists per signalement.
type Validation struct {
	ID            int64
	SignalementID int64
	StatusID      int64
	StatusName    string
	ValidatedByID *int64
	ValidatedAt   *time.Time
	Note          *string
}

// ValidationHistoryEntry is an append-only audit row for validation-state
// changes. FromStatusID is nil only on the first transition out of the
// implicit PENDING default. Read newest-first.
type ValidationHistoryEntry struct {
	ID             int64
	ValidationID   int64
	ChangedByID    *int64
	ChangedAt      time.Time
	FromStatusID   *int64
	FromStatusName *string
	ToStatusID     int64
	ToStatusName   string
	Note           *string
}
