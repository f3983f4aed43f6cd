// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

// Package community implements the editorial section of the board: articles
// written by administrators (care guides, campaigns, announcements) that
// everyone can read.
package community

import (
	"strings"
	"time"
)

// Article is one community publication. Only admins author them.
type Article struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Image    string `json:"img,omitempty"`

	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// normalize uppercases title and category and lowercases the image
// reference, mirroring how board posts treat display text.
func (article *Article) normalize() {
	article.Title = strings.ToUpper(strings.TrimSpace(article.Title))
	article.Category = strings.ToUpper(strings.TrimSpace(article.Category))
	article.Image = strings.ToLower(strings.TrimSpace(article.Image))
	article.Content = strings.TrimSpace(article.Content)
}
