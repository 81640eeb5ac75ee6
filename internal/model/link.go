package model

import (
	"time"
)

type Link struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"-"`
	Slug            string     `json:"slug"`
	URL             string     `json:"url"`
	IsCustom        bool       `json:"isCustom"`
	FolderID        *int64     `json:"folderId,omitempty"`
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

// Expired reports whether the link has an expiry in the past.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// LinkInput is the caller-editable part of a link. It deliberately has no
// owner field: ownership always comes from the repository's scope.
type LinkInput struct {
	URL             string     `json:"url"`
	FolderID        *int64     `json:"folderId,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	MetaTitle       *string    `json:"metaTitle,omitempty"`
	MetaDescription *string    `json:"metaDescription,omitempty"`
	MetaImage       *string    `json:"metaImage,omitempty"`
	Note            *string    `json:"note,omitempty"`
}

type Folder struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Tag struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type LinkTag struct {
	LinkID int64 `json:"linkId"`
	TagID  int64 `json:"tagId"`
}
