// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package post

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/pagination"
)

// PostgresStore persists posts in PostgreSQL. Listings join the owning
// account for the display name.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postSelect = `SELECT p.id, p.type, p.status, p.animal_name, p.species, p.breed,
	p.sex, p.size, p.color, p.age, p.details, p.whatsapp, p.img,
	p.place, p.event_date, p.affinity, p.animal_affinity, p.energy, p.neutered,
	p.owner_id, a.name, p.created_at, p.updated_at
	FROM post p JOIN account a ON a.id = p.owner_id`

// List implements [Store].
func (store *PostgresStore) List(ctx context.Context, filter Filter, page pagination.Params) ([]Post, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT count(*) FROM post p` + where
	if err := store.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("post: count: %w", err)
	}

	query := fmt.Sprintf("%s%s ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d",
		postSelect, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	posts, err := store.queryPosts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListByOwner implements [Store].
func (store *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]Post, error) {
	query := postSelect + ` WHERE p.owner_id = $1 ORDER BY p.created_at DESC`
	return store.queryPosts(ctx, query, ownerID)
}

// Get implements [Store].
func (store *PostgresStore) Get(ctx context.Context, id string) (*Post, error) {
	query := postSelect + ` WHERE p.id = $1`
	row := store.pool.QueryRow(ctx, query, id)

	found, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Post")
		}
		return nil, fmt.Errorf("post: get: %w", err)
	}
	return found, nil
}

// Create implements [Store].
func (store *PostgresStore) Create(ctx context.Context, post *Post) error {
	query := `INSERT INTO post (id, type, status, animal_name, species, breed, sex,
		size, color, age, details, whatsapp, img, place, event_date,
		affinity, animal_affinity, energy, neutered, owner_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`

	_, err := store.pool.Exec(ctx, query,
		post.ID, post.Type, post.Status, post.AnimalName, post.Species, post.Breed,
		post.Sex, post.Size, post.Color, post.Age, post.Details, post.WhatsApp,
		post.Image, post.Place, post.EventDate, post.Affinity, post.AnimalAffinity,
		post.Energy, post.Neutered, post.OwnerID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("post: insert: %w", err)
	}
	return nil
}

// Update implements [Store].
func (store *PostgresStore) Update(ctx context.Context, post *Post) error {
	query := `UPDATE post SET status = $2, animal_name = $3, species = $4, breed = $5,
		sex = $6, size = $7, color = $8, age = $9, details = $10, whatsapp = $11,
		img = $12, place = $13, event_date = $14, affinity = $15,
		animal_affinity = $16, energy = $17, neutered = $18, updated_at = $19
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query,
		post.ID, post.Status, post.AnimalName, post.Species, post.Breed,
		post.Sex, post.Size, post.Color, post.Age, post.Details, post.WhatsApp,
		post.Image, post.Place, post.EventDate, post.Affinity, post.AnimalAffinity,
		post.Energy, post.Neutered, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("post: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Post")
	}
	return nil
}

// # Query Building

func buildWhere(filter Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeInactive {
		clauses = append(clauses, "p.status <> "+arg(StatusInactive))
	}
	if filter.Type != "" {
		clauses = append(clauses, "p.type = "+arg(filter.Type))
	}
	if filter.Status != "" {
		clauses = append(clauses, "p.status = "+arg(filter.Status))
	}
	if filter.Search != "" {
		pattern := arg("%" + filter.Search + "%")
		// Adoption posts carry no place, so the place match only applies
		// when the listing is not restricted to adoptions.
		search := fmt.Sprintf("(p.breed ILIKE %s OR p.details ILIKE %s", pattern, pattern)
		if filter.Type != TypeAdoption {
			search += fmt.Sprintf(" OR p.place ILIKE %s", pattern)
		}
		search += ")"
		clauses = append(clauses, search)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (store *PostgresStore) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := store.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("post: query: %w", err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		scanned, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("post: scan: %w", err)
		}
		posts = append(posts, *scanned)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("post: iterate: %w", err)
	}
	return posts, nil
}

func scanPost(row pgx.Row) (*Post, error) {
	var scanned Post
	err := row.Scan(
		&scanned.ID, &scanned.Type, &scanned.Status, &scanned.AnimalName,
		&scanned.Species, &scanned.Breed, &scanned.Sex, &scanned.Size,
		&scanned.Color, &scanned.Age, &scanned.Details, &scanned.WhatsApp,
		&scanned.Image, &scanned.Place, &scanned.EventDate, &scanned.Affinity,
		&scanned.AnimalAffinity, &scanned.Energy, &scanned.Neutered,
		&scanned.OwnerID, &scanned.OwnerName, &scanned.CreatedAt, &scanned.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &scanned, nil
}
