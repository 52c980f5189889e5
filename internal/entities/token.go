package entities

import "time"

// StoredToken holds an encrypted API token
type StoredToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Name identifies the service the token belongs to (e.g., "readwise")
	Name string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`

	// Value is the token sealed with secretbox, base64-encoded
	Value string `gorm:"type:text;not null" json:"-"`

	// ValidatedAt is when the token last passed the auth endpoint check
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

// TableName specifies the table name for GORM
func (StoredToken) TableName() string {
	return "stored_tokens"
}
