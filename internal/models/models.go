// internal/models/models.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GenerationRequest is the body of a content generation call
type GenerationRequest struct {
	Industry    string `json:"industry" example:"digital-marketing"`
	URL         string `json:"url,omitempty" example:"https://example.com"`
	CompanyName string `json:"companyName,omitempty" example:"Acme Digital"`
	// JobID lets a client follow progress over /ws/generate/{id}
	JobID string `json:"jobId,omitempty" example:"6f1c2a4e-0c7b-4a53-9d7e-2b1f5c0f9a11"`
}

// Normalize trims surrounding whitespace from every field
func (r *GenerationRequest) Normalize() {
	r.Industry = strings.TrimSpace(r.Industry)
	r.URL = strings.TrimSpace(r.URL)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.JobID = strings.TrimSpace(r.JobID)
}

// HasURL reports whether the request runs in URL mode. URL wins when both are given.
func (r *GenerationRequest) HasURL() bool {
	return r.URL != ""
}

// PageMeta is the source page metadata echoed back to the caller
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ModelFailure stores a model output that could not be parsed as JSON
type ModelFailure struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TemplateID string         `gorm:"type:varchar(100);index"`
	Industry   string         `gorm:"type:varchar(100)"`
	Source     string         `gorm:"type:varchar(2048)"`
	Provider   string         `gorm:"type:varchar(50)"`
	Model      string         `gorm:"type:varchar(100)"`
	ResponseID string         `gorm:"type:varchar(255)"`
	Status     string         `gorm:"type:varchar(50)"`
	ParseError string         `gorm:"type:text"`
	RawOutput  string         `gorm:"type:text"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
}
