// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package post

import (
	"context"
	"log/slog"
	"time"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/users/auth"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/pagination"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/uuidv7"
)

// AccountDirectory resolves account records for permission checks and
// contact lookups. Satisfied by the auth account store.
type AccountDirectory interface {
	FindByID(ctx context.Context, id string) (*auth.Account, error)
}

// FeedCache caches public feed pages. Implementations may drop entries at
// any time; the cache is an optimization, never a source of truth.
type FeedCache interface {
	GetFeed(ctx context.Context, key string) ([]Post, int, bool)
	SetFeed(ctx context.Context, key string, posts []Post, total int)
	Invalidate(ctx context.Context)
}

// Service implements the board use cases on top of the store.
type Service struct {
	store    Store
	accounts AccountDirectory
	cache    FeedCache
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the board service.
func NewService(store Store, accounts AccountDirectory, cache FeedCache, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		accounts: accounts,
		cache:    cache,
		logger:   logger.With(slog.String("component", "post_service")),
		now:      time.Now,
	}
}

// errNoPermission is shared by every owner-or-admin check.
var errNoPermission = apperr.Forbidden("No tenés permisos para esta publicación")

// canManage reports whether the actor owns the post or is an admin.
func (service *Service) canManage(ctx context.Context, actorID string, post *Post) (bool, error) {
	if post.OwnerID == actorID {
		return true, nil
	}
	actor, err := service.accounts.FindByID(ctx, actorID)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return false, nil
		}
		return false, apperr.Internal(err)
	}
	return actor.IsAdmin(), nil
}

// # Listings

// ListPublic returns one page of the public feed, excluding inactive
// posts. Unfiltered pages are served from the cache when possible.
func (service *Service) ListPublic(ctx context.Context, filter Filter, page pagination.Params) ([]Post, pagination.Meta, error) {
	filter.Type = Normalize(filter.Type)
	filter.Status = Normalize(filter.Status)
	filter.IncludeInactive = false

	cacheable := filter.Search == ""
	cacheKey := feedKey(filter, page)
	if cacheable {
		if posts, total, ok := service.cache.GetFeed(ctx, cacheKey); ok {
			return posts, pagination.NewMeta(page.Page, page.Limit, total), nil
		}
	}

	posts, total, err := service.store.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, apperr.Internal(err)
	}
	if cacheable {
		service.cache.SetFeed(ctx, cacheKey, posts, total)
	}
	return posts, pagination.NewMeta(page.Page, page.Limit, total), nil
}

// ListByOwner returns every post of the given owner, inactive included.
// Only the owner themselves or an admin may call it.
func (service *Service) ListByOwner(ctx context.Context, actorID, ownerID string) ([]Post, error) {
	if actorID != ownerID {
		actor, err := service.accounts.FindByID(ctx, actorID)
		if err != nil || !actor.IsAdmin() {
			return nil, errNoPermission
		}
	}

	posts, err := service.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return posts, nil
}

// ListAdmin returns one page over all posts, inactive included, optionally
// filtered by status. Admin only.
func (service *Service) ListAdmin(ctx context.Context, actorID, status string, page pagination.Params) ([]Post, pagination.Meta, error) {
	actor, err := service.accounts.FindByID(ctx, actorID)
	if err != nil || !actor.IsAdmin() {
		return nil, pagination.Meta{}, errNoPermission
	}

	filter := Filter{Status: Normalize(status), IncludeInactive: true}
	posts, total, err := service.store.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, apperr.Internal(err)
	}
	return posts, pagination.NewMeta(page.Page, page.Limit, total), nil
}

// Get returns a single active post. Inactive posts are indistinguishable
// from absent ones on this public path.
func (service *Service) Get(ctx context.Context, id string) (*Post, error) {
	found, err := service.store.Get(ctx, id)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.NotFound("Publicación")
		}
		return nil, apperr.Internal(err)
	}
	if found.Status == StatusInactive {
		return nil, apperr.NotFound("Publicación")
	}
	return found, nil
}

// # Mutations

// Create validates and inserts a new post owned by the actor.
//
// The status cannot be chosen at creation: it is derived from the type.
// Required fields depend on the type: lost/found posts need place and
// date, adoption posts need the affinity/energy/neutered block.
func (service *Service) Create(ctx context.Context, actorID string, input *Post) (*Post, error) {
	input.normalizeFields()

	if err := validateForCreate(input); err != nil {
		return nil, err
	}

	input.ID = uuidv7.New()
	input.OwnerID = actorID
	input.Status = DefaultStatus(input.Type)
	input.stripMismatchedFields()
	input.CreatedAt = service.now()
	input.UpdatedAt = input.CreatedAt

	if err := service.store.Create(ctx, input); err != nil {
		return nil, apperr.Internal(err)
	}
	service.cache.Invalidate(ctx)

	service.logger.InfoContext(ctx, "post created",
		slog.String("post_id", input.ID),
		slog.String("type", input.Type),
		slog.String("species", input.Species),
	)
	return input, nil
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	AnimalName *string `json:"animal_name"`
	Species    *string `json:"species"`
	Breed      *string `json:"breed"`
	Sex        *string `json:"sex"`
	Size       *string `json:"size"`
	Color      *string `json:"color"`
	Age        *string `json:"age"`
	Details    *string `json:"details"`
	WhatsApp   *string `json:"whatsapp"`
	Image      *string `json:"img"`

	Place     *string `json:"place"`
	EventDate *string `json:"event_date"`

	Affinity       *string `json:"affinity"`
	AnimalAffinity *string `json:"animal_affinity"`
	Energy         *string `json:"energy"`
	Neutered       *bool   `json:"neutered"`
}

// Update applies a partial update to a post owned by the actor (or by
// anyone, when the actor is admin). The post's type and owner are
// immutable; provided fields that do not belong to the post's type are
// silently dropped.
func (service *Service) Update(ctx context.Context, actorID, id string, input UpdateInput) (*Post, error) {
	existing, err := service.store.Get(ctx, id)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.NotFound("Publicación")
		}
		return nil, apperr.Internal(err)
	}

	allowed, err := service.canManage(ctx, actorID, existing)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errNoPermission
	}

	applyUpdate(existing, input)
	existing.normalizeFields()
	existing.stripMismatchedFields()
	existing.UpdatedAt = service.now()

	if err := service.store.Update(ctx, existing); err != nil {
		return nil, apperr.Internal(err)
	}
	service.cache.Invalidate(ctx)
	return existing, nil
}

// UpdateStatus changes only the status of a post. Owner or admin.
func (service *Service) UpdateStatus(ctx context.Context, actorID, id, status string) (*Post, error) {
	status = Normalize(status)
	if status == "" {
		return nil, apperr.ValidationError("Validation failed",
			apperr.FieldError{Field: "status", Message: "This field is required"})
	}

	existing, err := service.store.Get(ctx, id)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.NotFound("Publicación")
		}
		return nil, apperr.Internal(err)
	}

	allowed, err := service.canManage(ctx, actorID, existing)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errNoPermission
	}

	existing.Status = status
	existing.UpdatedAt = service.now()
	if err := service.store.Update(ctx, existing); err != nil {
		return nil, apperr.Internal(err)
	}
	service.cache.Invalidate(ctx)

	service.logger.InfoContext(ctx, "post status updated",
		slog.String("post_id", id),
		slog.String("status", status),
	)
	return existing, nil
}

// Delete retires a post by moving it to INACTIVO. The row survives so the
// owner's dashboard can still show and reactivate it.
func (service *Service) Delete(ctx context.Context, actorID, id string) error {
	_, err := service.UpdateStatus(ctx, actorID, id, StatusInactive)
	return err
}

// Contact is the contact card returned to authenticated users who want to
// reach a post's owner.
type Contact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// GetContact returns the owner's contact information for an active post.
// Requires authentication at the HTTP layer; contact data is never served
// on the anonymous feed.
func (service *Service) GetContact(ctx context.Context, id string) (*Contact, error) {
	found, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	owner, err := service.accounts.FindByID(ctx, found.OwnerID)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.NotFound("Publicación")
		}
		return nil, apperr.Internal(err)
	}

	return &Contact{
		Name:     owner.Name,
		Email:    owner.Email,
		WhatsApp: found.WhatsApp,
	}, nil
}

// # Helpers

func validateForCreate(input *Post) error {
	var fieldErrors []apperr.FieldError
	add := func(field, message string) {
		fieldErrors = append(fieldErrors, apperr.FieldError{Field: field, Message: message})
	}

	switch input.Type {
	case TypeLost, TypeFound:
		if input.Place == "" {
			add("place", "El lugar es obligatorio para este tipo de publicación")
		}
		if input.EventDate == "" {
			add("event_date", "La fecha es obligatoria para este tipo de publicación")
		}
	case TypeAdoption:
		if input.Affinity == "" {
			add("affinity", "La afinidad es obligatoria para adopción")
		}
		if input.AnimalAffinity == "" {
			add("animal_affinity", "La afinidad con animales es obligatoria para adopción")
		}
		if input.Energy == "" {
			add("energy", "El nivel de energía es obligatorio para adopción")
		}
		if input.Neutered == nil {
			add("neutered", "El estado de castración es obligatorio para adopción")
		}
	default:
		add("type", "Tipo de publicación desconocido")
	}

	if input.Species == "" {
		add("species", "This field is required")
	}
	if input.WhatsApp == "" {
		add("whatsapp", "This field is required")
	}

	if len(fieldErrors) > 0 {
		return apperr.ValidationError("Validation failed", fieldErrors...)
	}
	return nil
}

func applyUpdate(target *Post, input UpdateInput) {
	setString := func(destination *string, value *string) {
		if value != nil {
			*destination = *value
		}
	}

	setString(&target.AnimalName, input.AnimalName)
	setString(&target.Species, input.Species)
	setString(&target.Breed, input.Breed)
	setString(&target.Sex, input.Sex)
	setString(&target.Size, input.Size)
	setString(&target.Color, input.Color)
	setString(&target.Age, input.Age)
	setString(&target.Details, input.Details)
	setString(&target.WhatsApp, input.WhatsApp)
	setString(&target.Image, input.Image)
	setString(&target.Place, input.Place)
	setString(&target.EventDate, input.EventDate)
	setString(&target.Affinity, input.Affinity)
	setString(&target.AnimalAffinity, input.AnimalAffinity)
	setString(&target.Energy, input.Energy)
	if input.Neutered != nil {
		target.Neutered = input.Neutered
	}
}
