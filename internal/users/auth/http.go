// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/middleware"
	requestutil "github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/request"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/respond"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/validate"
)

// Handler exposes the auth service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the auth HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the auth endpoints.
//
// Public:
//
//	POST /login
//	POST /refresh
//	POST /forgot-password
//	POST /reset-password/{token}
//
// Authenticated:
//
//	GET  /          (revalidate current user)
//	POST /logout
//	POST /logout-all
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.Login)
	router.Post("/refresh", handler.Refresh)
	router.Post("/forgot-password", handler.ForgotPassword)
	router.Post("/reset-password/{token}", handler.ResetPassword)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Get("/", handler.Revalidate)
		protected.Post("/logout", handler.Logout)
		protected.Post("/logout-all", handler.LogoutAll)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// # Endpoints

// Login handles POST /login.
func (handler *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	var payload loginRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required(FieldEmail, payload.Email).
		Email(FieldEmail, payload.Email).
		Required(FieldPassword, payload.Password).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Login(request.Context(), Credentials{
		Email:     payload.Email,
		Password:  payload.Password,
		Device:    request.UserAgent(),
		IPAddress: requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldUser:         result.Account,
		FieldAccessToken:  result.Tokens.AccessToken,
		FieldRefreshToken: result.Tokens.RefreshToken,
	})
}

// Refresh handles POST /refresh.
func (handler *Handler) Refresh(writer http.ResponseWriter, request *http.Request) {
	var payload refreshRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if payload.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "This field is required"))
		return
	}

	pair, err := handler.service.Refresh(request.Context(), RefreshInput{
		RefreshToken: payload.RefreshToken,
		Device:       request.UserAgent(),
		IPAddress:    requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

// ForgotPassword handles POST /forgot-password.
func (handler *Handler) ForgotPassword(writer http.ResponseWriter, request *http.Request) {
	var payload forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required(FieldEmail, payload.Email).
		Email(FieldEmail, payload.Email).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RequestReset(request.Context(), payload.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Te enviamos un correo para restablecer tu contraseña",
	})
}

// ResetPassword handles POST /reset-password/{token}.
func (handler *Handler) ResetPassword(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, FieldToken)

	var payload resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ConsumeReset(request.Context(), token, payload.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Contraseña actualizada. Iniciá sesión nuevamente",
	})
}

// Revalidate handles GET /. It re-verifies the presented access token and
// returns the current account profile without touching any session state.
func (handler *Handler) Revalidate(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.BearerToken(request)
	if token == "" {
		respond.Error(writer, request, ErrInvalidAccessToken)
		return
	}

	account, err := handler.service.Revalidate(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldUser: account})
}

// Logout handles POST /logout. Removing an already-dead refresh token still
// succeeds.
func (handler *Handler) Logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload logoutRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Logout(request.Context(), userID, payload.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Sesión cerrada"})
}

// LogoutAll handles POST /logout-all.
func (handler *Handler) LogoutAll(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.LogoutAll(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Se cerraron las sesiones en todos los dispositivos"})
}
