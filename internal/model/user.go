package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Cashiers operate a till, supervisors additionally close sessions
// and distribute tips, admins manage users.
const (
	RoleCashier    = "cashier"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// User stores system users with role-based access.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// Till restricts a cashier to a specific register; nil = all registers.
	Till      *int
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
