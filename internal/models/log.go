package models

import "time"

// AuditLog records calls to the fund-movement endpoints.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	ActorID   string `gorm:"size:64;index"`
	Path      string `gorm:"size:255"`
	Method    string `gorm:"size:16"`
	Status    int
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	Metadata  string `gorm:"size:2048"` // request body, truncated
	CreatedAt time.Time
}
