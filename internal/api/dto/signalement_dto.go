package dto

import "time"

// CreateSignalementRequest payload.
type CreateSignalementRequest struct {
	StatusID     *int64   `json:"status_id"`
	EntrepriseID *int64   `json:"entreprise_id"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Description  string   `json:"description"`
	SurfaceArea  *float64 `json:"surface_area"`
	Budget       *float64 `json:"budget"`
	PhotoURL     *string  `json:"photo_url"`
	UserUID      *string  `json:"user_uid"`
	PhotoURLs    []string `json:"photo_urls"`
}

// UpdateSignalementRequest carries partial updates; absent fields are left
// untouched.
type UpdateSignalementRequest struct {
	StatusID     *int64   `json:"status_id"`
	EntrepriseID *int64   `json:"entreprise_id"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Description  *string  `json:"description"`
	SurfaceArea  *float64 `json:"surface_area"`
	Budget       *float64 `json:"budget"`
	PhotoURL     *string  `json:"photo_url"`
}

// SetStatusRequest payload for the status fast path.
type SetStatusRequest struct {
	StatusID int64 `json:"status_id"`
}

// AddPhotosRequest payload.
type AddPhotosRequest struct {
	URLs []string `json:"urls"`
}

// SignalementResponse describes a report.
type SignalementResponse struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	Status       string          `json:"status"`
	StatusID     int64           `json:"status_id"`
	EntrepriseID *int64          `json:"entreprise_id,omitempty"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	Description  string          `json:"description"`
	SurfaceArea  *float64        `json:"surface_area,omitempty"`
	Budget       *float64        `json:"budget,omitempty"`
	PhotoURL     *string         `json:"photo_url,omitempty"`
	MirrorDocID  *string         `json:"mirror_doc_id,omitempty"`
	UserUID      *string         `json:"user_uid,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Photos       []PhotoResponse `json:"photos,omitempty"`
}

// PhotoResponse describes a photo URL row.
type PhotoResponse struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusEntryResponse describes one audit trail row.
type StatusEntryResponse struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	StatusID   int64     `json:"status_id"`
	ChangedBy  *int64    `json:"changed_by,omitempty"`
	DateStatus time.Time `json:"date_status"`
	Comment    string    `json:"comment"`
}

// ChangeValidationRequest payload.
type ChangeValidationRequest struct {
	StatusID int64   `json:"status_id"`
	Note     *string `json:"note"`
}

// ValidationResponse describes the report's validation record.
type ValidationResponse struct {
	ID            int64      `json:"id"`
	SignalementID int64      `json:"signalement_id"`
	Status        string     `json:"status"`
	StatusID      int64      `json:"status_id"`
	ValidatedBy   *int64     `json:"validated_by,omitempty"`
	ValidatedAt   *time.Time `json:"validated_at,omitempty"`
	Note          *string    `json:"note,omitempty"`
}

// ValidationHistoryResponse describes one validation audit row, newest-first.
type ValidationHistoryResponse struct {
	ID         int64     `json:"id"`
	FromStatus *string   `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  *int64    `json:"changed_by,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
	Note       *string   `json:"note,omitempty"`
}
