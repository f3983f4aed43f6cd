// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package community

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/middleware"
	requestutil "github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/request"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/respond"
)

// Handler exposes the community section over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the community HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the community endpoints. Reads are public; writes require
// an authenticated admin.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.List)
	router.Get("/{id}", handler.Get)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Post("/", handler.Create)
		protected.Put("/{id}", handler.Update)
		protected.Delete("/{id}", handler.Delete)
	})

	return router
}

// List handles GET /.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	articles, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, articles)
}

// Get handles GET /{id}. Accepts an article ID or slug.
func (handler *Handler) Get(writer http.ResponseWriter, request *http.Request) {
	article, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, article)
}

// Create handles POST /.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload Input
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	article, err := handler.service.Create(request.Context(), actorID, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, article)
}

// Update handles PUT /{id}.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload Input
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	article, err := handler.service.Update(request.Context(), actorID, requestutil.Param(request, "id"), payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, article)
}

// Delete handles DELETE /{id}.
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
