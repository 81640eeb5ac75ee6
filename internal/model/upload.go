package model

import (
	"time"
)

// Upload is the record of one object stored on behalf of a user.
type Upload struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"-"`
	ObjectKey   string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}
