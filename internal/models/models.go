package models

import "time"

// Profile is a tenant + meter registration owned by one user. The owning
// user id comes from the verified token subject and never changes after
// creation.
type Profile struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         string    `gorm:"not null;index"` // token subject of the owner
	TenantName     string    `gorm:"not null"`
	MeterNumber    string    `gorm:"not null"`
	InitialReading *int64    // nullable until explicitly set
	Readings       []Reading `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

func (Profile) TableName() string { return "profile" }

// Reading is one previous/current meter observation tied to a profile.
// Consumption is computed once at creation (current - previous) and stored;
// it is never recomputed on read. Readings are immutable once created.
type Reading struct {
	ID          uint `gorm:"primaryKey"`
	ProfileID   uint `gorm:"not null;index"`
	Date        time.Time
	Previous    int64 `gorm:"not null"`
	Current     int64 `gorm:"not null"`
	Consumption int64 `gorm:"not null"`
}

func (Reading) TableName() string { return "reading" }
