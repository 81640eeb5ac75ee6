package model

import (
	"time"
)

// ExportSchemaVersion is bumped whenever the envelope layout changes.
const ExportSchemaVersion = 1

// Export is the versioned backup envelope for one user's data.
type Export struct {
	SchemaVersion int             `json:"schemaVersion"`
	ExportedAt    time.Time       `json:"exportedAt"`
	Links         []ExportedLink  `json:"links"`
	Folders       []ExportedNamed `json:"folders"`
	Tags          []ExportedNamed `json:"tags"`
	LinkTags      []LinkTag       `json:"linkTags"`
}

// ExportedLink carries everything needed to rebuild a link faithfully.
// IDs are the exporter's ids and only meaningful inside one envelope.
type ExportedLink struct {
	ID              int64      `json:"id"`
	URL             string     `json:"url"`
	Slug            string     `json:"slug"`
	IsCustom        bool       `json:"isCustom"`
	FolderID        *int64     `json:"folderId,omitempty"`
	TagIDs          []int64    `json:"tagIds"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	Clicks          int64      `json:"clicks"`
	MetaTitle       *string    `json:"metaTitle,omitempty"`
	MetaDescription *string    `json:"metaDescription,omitempty"`
	MetaImage       *string    `json:"metaImage,omitempty"`
	ScreenshotURL   *string    `json:"screenshotUrl,omitempty"`
	Note            *string    `json:"note,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type ExportedNamed struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ImportResult summarizes what an import created and what it had to skip.
type ImportResult struct {
	Folders      int            `json:"folders"`
	Tags         int            `json:"tags"`
	Links        int            `json:"links"`
	SkippedSlugs []string       `json:"skippedSlugs"`
	Rejected     []RejectedLink `json:"rejected"`
}

// RejectedLink is an exported link that failed validation on import.
type RejectedLink struct {
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
}
