package storage

import (
	"time"

	"gorm.io/datatypes"
)

// User is the account model. Password holds the salted hash, never the
// plaintext.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `json:"-"`
	Salt      string    `json:"-"`
	Nickname  string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealRecord stores one archived analysis. The validated analysis result is
// kept as a JSON document; the relational columns exist for listing and
// owner scoping only.
type MealRecord struct {
	ID          string         `gorm:"type:varchar(36);primaryKey"`
	OwnerID     string         `gorm:"type:varchar(64);index;not null"`
	FileName    string         `gorm:"type:varchar(255)"`
	ArtifactURL string         `gorm:"type:varchar(512);not null"`
	ArtifactKey string         `gorm:"type:varchar(512);not null"`
	Analysis    datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"index"`
}
