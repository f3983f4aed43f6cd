// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/middleware"
	requestutil "github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/request"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/respond"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/pagination"
)

// Handler exposes the board over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the board HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the board endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.ListPublic)
	router.Get("/{id}", handler.Get)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Get("/admin", handler.ListAdmin)
		protected.Get("/user/{id}", handler.ListByOwner)
		protected.Get("/{id}/contact", handler.GetContact)
		protected.Post("/", handler.Create)
		protected.Put("/{id}", handler.Update)
		protected.Put("/{id}/status", handler.UpdateStatus)
		protected.Delete("/{id}", handler.Delete)
	})

	return router
}

// ListPublic handles GET /. Query: page, limit, type, status, search.
func (handler *Handler) ListPublic(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	filter := Filter{
		Type:   query.Get("type"),
		Status: query.Get("status"),
		Search: query.Get("search"),
	}

	posts, meta, err := handler.service.ListPublic(request.Context(), filter, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, posts, meta)
}

// ListAdmin handles GET /admin. Inactive posts included.
func (handler *Handler) ListAdmin(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	posts, meta, err := handler.service.ListAdmin(request.Context(), actorID,
		request.URL.Query().Get("status"), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, posts, meta)
}

// ListByOwner handles GET /user/{id}.
func (handler *Handler) ListByOwner(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	posts, err := handler.service.ListByOwner(request.Context(), actorID, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, posts)
}

// Get handles GET /{id}.
func (handler *Handler) Get(writer http.ResponseWriter, request *http.Request) {
	found, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

// GetContact handles GET /{id}/contact.
func (handler *Handler) GetContact(writer http.ResponseWriter, request *http.Request) {
	contact, err := handler.service.GetContact(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, contact)
}

// Create handles POST /.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload Post
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), actorID, &payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

// Update handles PUT /{id}.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload UpdateInput
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.Update(request.Context(), actorID, requestutil.Param(request, "id"), payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

// UpdateStatus handles PUT /{id}/status.
func (handler *Handler) UpdateStatus(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.UpdateStatus(request.Context(), actorID, requestutil.Param(request, "id"), payload.Status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

// Delete handles DELETE /{id}. The post is retired, not removed, so the
// owner's dashboard can reactivate it.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), actorID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
