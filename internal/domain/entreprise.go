package domain

// Entreprise is a contracted road-works company that can be assigned to a
// signalement.
type Entreprise struct {
	ID      int64
	Name    string
	Address *string
	Phone   *string
	Email   *string
}
