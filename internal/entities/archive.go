package entities

import "time"

type BackupStatus string

const (
	BackupStatusRunning BackupStatus = "running"
	BackupStatusSuccess BackupStatus = "success"
	BackupStatusFailed  BackupStatus = "failed"
)

// ArchivedBook is a local copy of a Readwise book, keyed by its Readwise id
type ArchivedBook struct {
	ID              int64               `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title           string              `gorm:"index;size:512" json:"title"`
	Author          string              `gorm:"index;size:256" json:"author"`
	Category        string              `gorm:"index;size:50" json:"category"`
	NumHighlights   int64               `json:"num_highlights"`
	LastHighlightAt *time.Time          `json:"last_highlight_at,omitempty"`
	SourceUpdatedAt time.Time           `json:"source_updated_at"` // "updated" as reported by Readwise
	CoverImageURL   string              `gorm:"size:2048" json:"cover_image_url,omitempty"`
	HighlightsURL   string              `gorm:"size:2048" json:"highlights_url,omitempty"`
	SourceURL       string              `gorm:"size:2048" json:"source_url,omitempty"`
	Highlights      []ArchivedHighlight `gorm:"foreignKey:BookID;references:ID" json:"highlights,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ArchivedHighlight is a local copy of a Readwise highlight
type ArchivedHighlight struct {
	ID              int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	BookID          *int64     `gorm:"index" json:"book_id,omitempty"`
	Text            string     `gorm:"type:text" json:"text"`
	Note            string     `gorm:"type:text" json:"note,omitempty"`
	Location        int64      `json:"location"`
	LocationType    string     `gorm:"size:20" json:"location_type"`
	Color           string     `gorm:"size:20" json:"color,omitempty"`
	URL             string     `gorm:"size:2048" json:"url,omitempty"`
	HighlightedAt   *time.Time `json:"highlighted_at,omitempty"`
	SourceUpdatedAt time.Time  `json:"source_updated_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BackupRun records one pass of copying the Readwise library into the archive
type BackupRun struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	StartedAt        time.Time    `gorm:"index" json:"started_at"`
	FinishedAt       *time.Time   `json:"finished_at,omitempty"`
	Status           BackupStatus `gorm:"size:20" json:"status"`
	BooksSynced      int          `json:"books_synced"`
	HighlightsSynced int          `json:"highlights_synced"`
	Message          string       `gorm:"type:text" json:"message,omitempty"`
}
