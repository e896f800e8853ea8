package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/domain"
	"campusconnect/internal/service"
	"campusconnect/internal/transport/http/ez"
)

type AuthHandler struct{ svc *service.AuthService }

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Mount(api ez.EZ) {
	g := api.Group("/auth")

	ez.RegisterAction(g, ez.Action[service.RegisterInput, *service.Session]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *domain.User, in *service.RegisterInput) (*service.Session, error) {
			return h.svc.Register(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[service.LoginInput, *service.Session]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *domain.User, in *service.LoginInput) (*service.Session, error) {
			return h.svc.Login(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(_ *gin.Context, caller *domain.User, _ *struct{}) (*domain.User, error) {
			return caller, nil
		},
	})

	ez.RegisterAction(g, ez.Action[service.ProfileInput, *domain.User]{
		Method: http.MethodPut,
		Path:   "/profile",
		Binder: ez.BindJSON,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, in *service.ProfileInput) (*domain.User, error) {
			return h.svc.UpdateProfile(c.Request.Context(), caller, *in)
		},
	})
}
