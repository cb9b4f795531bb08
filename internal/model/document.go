package model

import "time"

// Document is one entry of the corpus: the metadata of an uploaded file.
// Records are created once on upload and never modified afterwards.
type Document struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Path            string    `json:"path"`
	Type            string    `json:"type"`
	Size            int64     `json:"size"`
	MajorHead       string    `json:"major_head"`
	MinorHead       string    `json:"minor_head"`
	DocumentDate    string    `json:"document_date"`
	DocumentRemarks string    `json:"document_remarks"`
	Tags            []string  `json:"tags"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// Query is a transient search request. Every field is optional; an empty
// value places no constraint on the result.
type Query struct {
	MajorHead  string   `json:"major_head,omitempty" validate:"omitempty,max=64"`
	MinorHead  string   `json:"minor_head,omitempty" validate:"omitempty,max=128"`
	SearchTerm string   `json:"search_term,omitempty" validate:"omitempty,max=256"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=64,dive,max=64"`
}

// IsEmpty reports whether q carries no constraint at all.
func (q Query) IsEmpty() bool {
	return q.MajorHead == "" && q.MinorHead == "" && q.SearchTerm == "" && len(q.Tags) == 0
}
