// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package community

import (
	"context"
	"log/slog"
	"time"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/users/auth"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/slug"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/uuidv7"
)

// Store abstracts article persistence.
type Store interface {
	// List returns every article, newest first.
	List(ctx context.Context) ([]Article, error)
	// Get loads an article by ID or slug.
	// Returns apperr.NotFound when no such article exists.
	Get(ctx context.Context, idOrSlug string) (*Article, error)
	Create(ctx context.Context, article *Article) error
	Update(ctx context.Context, article *Article) error
	Delete(ctx context.Context, id string) error
}

// AccountDirectory resolves accounts for the admin check.
type AccountDirectory interface {
	FindByID(ctx context.Context, id string) (*auth.Account, error)
}

// Service implements the community use cases.
type Service struct {
	store    Store
	accounts AccountDirectory
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the community service.
func NewService(store Store, accounts AccountDirectory, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		accounts: accounts,
		logger:   logger.With(slog.String("component", "community_service")),
		now:      time.Now,
	}
}

var errAdminOnly = apperr.Forbidden("Solo el administrador puede gestionar la comunidad")

func (service *Service) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := service.accounts.FindByID(ctx, actorID)
	if err != nil || !actor.IsAdmin() {
		return errAdminOnly
	}
	return nil
}

// List returns every article, newest first. Public.
func (service *Service) List(ctx context.Context) ([]Article, error) {
	articles, err := service.store.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return articles, nil
}

// Get returns one article by ID or slug. Public.
func (service *Service) Get(ctx context.Context, idOrSlug string) (*Article, error) {
	article, err := service.store.Get(ctx, idOrSlug)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.NotFound("Publicación")
		}
		return nil, apperr.Internal(err)
	}
	return article, nil
}

// Input carries the writable article fields.
type Input struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Image    string `json:"img"`
}

// Create publishes a new article. Admin only. The slug is derived from the
// title.
func (service *Service) Create(ctx context.Context, actorID string, input Input) (*Article, error) {
	if err := service.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	article := &Article{
		ID:       uuidv7.New(),
		Title:    input.Title,
		Content:  input.Content,
		Category: input.Category,
		Image:    input.Image,
		AuthorID: actorID,
	}
	article.normalize()
	if article.Title == "" || article.Content == "" || article.Category == "" {
		return nil, apperr.ValidationError("Título, contenido y categoría son obligatorios")
	}
	article.Slug = slug.From(article.Title)
	article.CreatedAt = service.now()
	article.UpdatedAt = article.CreatedAt

	if err := service.store.Create(ctx, article); err != nil {
		return nil, apperr.Internal(err)
	}

	service.logger.InfoContext(ctx, "community article created",
		slog.String("article_id", article.ID),
		slog.String("slug", article.Slug),
	)
	return article, nil
}

// Update edits an article. Admin only. Empty input fields keep their
// current value; a new title recomputes the slug.
func (service *Service) Update(ctx context.Context, actorID, id string, input Input) (*Article, error) {
	if err := service.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	article, err := service.store.Get(ctx, id)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.NotFound("Publicación")
		}
		return nil, apperr.Internal(err)
	}

	if input.Title != "" {
		article.Title = input.Title
	}
	if input.Content != "" {
		article.Content = input.Content
	}
	if input.Category != "" {
		article.Category = input.Category
	}
	if input.Image != "" {
		article.Image = input.Image
	}
	article.normalize()
	article.Slug = slug.From(article.Title)
	article.UpdatedAt = service.now()

	if err := service.store.Update(ctx, article); err != nil {
		return nil, apperr.Internal(err)
	}
	return article, nil
}

// Delete removes an article permanently. Admin only.
func (service *Service) Delete(ctx context.Context, actorID, id string) error {
	if err := service.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	if err := service.store.Delete(ctx, id); err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return apperr.NotFound("Publicación")
		}
		return apperr.Internal(err)
	}

	service.logger.WarnContext(ctx, "community article deleted",
		slog.String("article_id", id),
		slog.String("deleted_by", actorID),
	)
	return nil
}
