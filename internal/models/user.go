package models

import "time"

const (
	RoleInvestor = "investor"
	RoleCreator  = "creator"
	RoleAdmin    = "admin"
)

// User is owned by the surrounding platform; the ledger only reads Role.
type User struct {
	ID        string `gorm:"primaryKey;size:64"`
	Email     string `gorm:"size:255;index"`
	Role      string `gorm:"size:16;index;not null;default:investor"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
