// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package community

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
)

// PostgresStore persists community articles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const articleSelect = `SELECT c.id, c.slug, c.title, c.content, c.category, c.img,
	c.author_id, a.name, c.created_at, c.updated_at
	FROM community_article c JOIN account a ON a.id = c.author_id`

// List implements [Store].
func (store *PostgresStore) List(ctx context.Context) ([]Article, error) {
	rows, err := store.pool.Query(ctx, articleSelect+` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("community: query: %w", err)
	}
	defer rows.Close()

	articles := make([]Article, 0)
	for rows.Next() {
		var article Article
		err := rows.Scan(&article.ID, &article.Slug, &article.Title, &article.Content,
			&article.Category, &article.Image, &article.AuthorID, &article.AuthorName,
			&article.CreatedAt, &article.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("community: scan: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("community: iterate: %w", err)
	}
	return articles, nil
}

// Get implements [Store]. The argument may be an article ID or its slug.
func (store *PostgresStore) Get(ctx context.Context, idOrSlug string) (*Article, error) {
	row := store.pool.QueryRow(ctx, articleSelect+` WHERE c.id::text = $1 OR c.slug = $1`, idOrSlug)

	var article Article
	err := row.Scan(&article.ID, &article.Slug, &article.Title, &article.Content,
		&article.Category, &article.Image, &article.AuthorID, &article.AuthorName,
		&article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Article")
		}
		return nil, fmt.Errorf("community: get: %w", err)
	}
	return &article, nil
}

// Create implements [Store].
func (store *PostgresStore) Create(ctx context.Context, article *Article) error {
	query := `INSERT INTO community_article
		(id, slug, title, content, category, img, author_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err := store.pool.Exec(ctx, query,
		article.ID, article.Slug, article.Title, article.Content,
		article.Category, article.Image, article.AuthorID,
		article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("community: insert: %w", err)
	}
	return nil
}

// Update implements [Store].
func (store *PostgresStore) Update(ctx context.Context, article *Article) error {
	query := `UPDATE community_article
		SET slug = $2, title = $3, content = $4, category = $5, img = $6, updated_at = $7
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query,
		article.ID, article.Slug, article.Title, article.Content,
		article.Category, article.Image, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("community: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Article")
	}
	return nil
}

// Delete implements [Store].
func (store *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := store.pool.Exec(ctx, `DELETE FROM community_article WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("community: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Article")
	}
	return nil
}
