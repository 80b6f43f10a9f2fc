package models

import "time"

// Document is stored file metadata; the bytes live on the filesystem store.
type Document struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	FilePath      string    `db:"file_path" json:"-"`
	MimeType      string    `db:"mime_type" json:"mime_type"`
	SizeBytes     int64     `db:"size_bytes" json:"size_bytes"`
	Category      string    `db:"category" json:"category"`
	RelatedToType *string   `db:"related_to_type" json:"related_to_type,omitempty"`
	RelatedToID   *string   `db:"related_to_id" json:"related_to_id,omitempty"`
	Notes         string    `db:"notes" json:"notes"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentDetail joins uploader display fields.
type DocumentDetail struct {
	Document
	UploadedByName *string `db:"uploaded_by_name" json:"uploaded_by_name,omitempty"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Category    string
	RelatedType string
	RelatedID   string
	Search      string
	Page        int
	PageSize    int
}
