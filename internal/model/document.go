package model

import "time"

// Document is a school document used by the retrieval fallback. The core
// treats Content as opaque text to quote into a generation prompt.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	DocType   string    `json:"doc_type"`
	CreatedAt time.Time `json:"created_at"`
}
