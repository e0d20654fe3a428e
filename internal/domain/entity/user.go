package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleUser       = "user"
	RolePharmacist = "pharmacist"
	RoleVendedor   = "vendedor"
)

// ValidRole indica si r es uno de los roles conocidos.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleUser, RolePharmacist, RoleVendedor:
		return true
	}
	return false
}

// User representa un usuario de la farmacia.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt; nunca sale en respuestas
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
