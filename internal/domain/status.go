package domain

// Seeded lifecycle status names. Extra statuses may be created at runtime;
// these three drive the statistics progress mapping.
const (
	StatusNouveau = "NOUVEAU"
	StatusEnCours = "EN_COURS"
	StatusTermine = "TERMINE"
)

// Status is a catalog entry for the operational lifecycle of a signalement.
type Status struct {
	ID          int64
	Name        string
	Description *string
}

// Seeded validation status names.
const (
	ValidationPending  = "PENDING"
	ValidationApproved = "APPROVED"
	ValidationRejected = "REJECTED"
)

// ValidationStatus is a catalog entry for the validation workflow.
type ValidationStatus struct {
	ID          int64
	Name        string
	Description *string
}
