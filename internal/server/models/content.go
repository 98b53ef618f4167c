package models

import "time"

// Content is a publishable item addressed publicly by its Slug.
type Content struct {
	ID        string
	Title     string
	Slug      string
	Author    string
	Tags      []string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
