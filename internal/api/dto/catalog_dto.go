package dto

// StatusRequest payload for catalog writes.
type StatusRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// StatusResponse describes a catalog entry.
type StatusResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// EntrepriseRequest payload for company catalog writes.
type EntrepriseRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

// EntrepriseResponse describes a company catalog entry.
type EntrepriseResponse struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
}

// TypeUserResponse describes a role catalog entry.
type TypeUserResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AssignRoleRequest payload for admin role assignment.
type AssignRoleRequest struct {
	TypeUser string `json:"type_user"`
}

// AdminCreateUserRequest payload for admin account creation.
type AdminCreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	TypeUser string `json:"type_user"`
}
