package domain

import "time"

// Entry is a journal entry owned by a single user. Every entry carries
// exactly one stored image, referenced by ImagePath relative to the
// static root ("uploads/<filename>"). Author is only populated by
// listings that join the owning user (public visibility mode).
type Entry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Rating    *int      `json:"rating,omitempty"`
	ImagePath string    `json:"image_path"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
