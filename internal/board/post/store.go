// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package post

import (
	"context"

	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/pagination"
)

// Filter narrows a board listing. Zero values mean "no constraint".
type Filter struct {
	// Type restricts to one post type (normalized).
	Type string
	// Status restricts to one status (normalized).
	Status string
	// Search matches case-insensitively against breed, details and, for
	// non-adoption posts, place.
	Search string
	// IncludeInactive also returns INACTIVO posts. Only the admin listing
	// sets it.
	IncludeInactive bool
}

// Store abstracts post persistence.
type Store interface {
	// List returns one page of posts matching the filter, newest first,
	// together with the total match count.
	List(ctx context.Context, filter Filter, page pagination.Params) ([]Post, int, error)

	// ListByOwner returns every post of one owner, newest first, including
	// inactive ones.
	ListByOwner(ctx context.Context, ownerID string) ([]Post, error)

	// Get loads a post by ID regardless of status.
	// Returns apperr.NotFound when no such post exists.
	Get(ctx context.Context, id string) (*Post, error)

	// Create inserts the post.
	Create(ctx context.Context, post *Post) error

	// Update persists all mutable fields of the post.
	Update(ctx context.Context, post *Post) error
}
