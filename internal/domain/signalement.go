package domain

import "time"

// Signalement is the aggregate for a reported road defect.
type Signalement struct {
	ID           int64
	UserID       int64
	StatusID     int64
	StatusName   string
	EntrepriseID *int64
	Latitude     float64
	Longitude    float64
	Description  string
	SurfaceArea  *float64
	Budget       *float64
	PhotoURL     *string
	MirrorDocID  *string
	UserUID      *string
	CreatedAt    time.Time
	Photos       []SignalementPhoto
}

// SignalementPhoto is an owned photo URL row, cascade-deleted with its parent.
type SignalementPhoto struct {
	ID            int64
	SignalementID int64
	URL           string
	CreatedAt     time.Time
}

// StatusEntry is an immutable audit row recording one status transition,
// including the initial creation. Ordered by DateStatus ascending.
type StatusEntry struct {
	ID            int64
	SignalementID int64
	StatusID      int64
	StatusName    string
	ChangedByID   *int64
	DateStatus    time.Time
	Comment       string
}
