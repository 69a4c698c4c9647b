// Package models defines the domain types for vaultpress.
package models

import "time"

// Post is the ledger record of one published page bundle.
type Post struct {
	Slug        string    `json:"slug"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Policy      string    `json:"policy"`
	Checksum    string    `json:"checksum"`
	Images      []string  `json:"images,omitempty"`
	ConvertedAt time.Time `json:"converted_at"`
}

// Run records one CLI or API invocation that converted posts in bulk.
type Run struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Converted  int       `json:"converted"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

// FileMeta is a lightweight representation returned by site listings.
type FileMeta struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
