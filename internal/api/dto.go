package api

import (
	"github.com/starford/vaultpress/internal/models"
	"github.com/starford/vaultpress/internal/press"
)

// ConvertRequest is the request body for a conversion preview.
type ConvertRequest struct {
	Text     string `json:"text" example:"# Hello\n![[cat.png]]" validate:"required"`
	Filename string `json:"filename,omitempty" example:"hello.md"`
	Slug     string `json:"slug,omitempty" example:"hello"`
	Policy   string `json:"policy,omitempty" example:"cover" enums:"cover,legacy"`
}

// PublishPostRequest is the request body for publishing a note.
type PublishPostRequest struct {
	Text     string `json:"text" example:"# Hello\nWorld" validate:"required"`
	Filename string `json:"filename,omitempty" example:"hello.md"`
	Slug     string `json:"slug,omitempty" example:"hello"`
	Policy   string `json:"policy,omitempty" example:"legacy" enums:"cover,legacy"`
	// Feature lists 1-based body image positions placed under the assets
	// directory (legacy policy only).
	Feature []int `json:"feature,omitempty" example:"1"`
	Force   bool  `json:"force,omitempty"`
}

// MigrateRequest is the request body for a bundle migration.
type MigrateRequest struct {
	Pattern string `json:"pattern,omitempty" example:"content/blog/*/index.md"`
	Policy  string `json:"policy,omitempty" example:"cover"`
	DryRun  bool   `json:"dry_run,omitempty"`
	Workers int    `json:"workers,omitempty" example:"4"`
}

// Report is the outcome of a conversion or publish (aliased from the domain layer).
type Report = press.Report

// MigrateReport summarizes a migration (aliased from the domain layer).
type MigrateReport = press.MigrateReport

// Post is a published post record (aliased from the domain layer).
type Post = models.Post

// Run is a batch run record (aliased from the domain layer).
type Run = models.Run

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []Post `json:"posts" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// RunListResponse wraps run history.
type RunListResponse struct {
	Runs []Run `json:"runs" validate:"required"`
}

// BundleUploadResponse is returned after a successful bundle upload.
type BundleUploadResponse struct {
	Filename string `json:"filename" example:"image.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	Path     string `json:"path" example:"content/blog/hello/image.png" validate:"required"`
	URL      string `json:"url" example:"/api/bundles/hello/image.png" validate:"required"`
}
