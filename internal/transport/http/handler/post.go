package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/domain"
	"campusconnect/internal/service"
	"campusconnect/internal/transport/http/ez"
	resp "campusconnect/internal/transport/http/response"
)

type PostHandler struct{ svc *service.PostService }

func NewPostHandler(svc *service.PostService) *PostHandler { return &PostHandler{svc: svc} }

func (h *PostHandler) Mount(api ez.EZ) {
	g := api.Group("/posts")

	ez.RegisterAction(g, ez.Action[service.ListPostsInput, *domain.Page[domain.Post]]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Auth:   ez.AuthOptional,
		Handler: func(c *gin.Context, _ *domain.User, in *service.ListPostsInput) (*domain.Page[domain.Post], error) {
			return h.svc.List(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Post]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *domain.User, _ *struct{}) (*domain.Post, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	// 匿名区允许不登录发帖，Official 区的角色限制在 service 里判断
	ez.RegisterAction(g, ez.Action[service.CreatePostInput, *domain.Post]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   ez.AuthOptional,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller *domain.User, in *service.CreatePostInput) (*domain.Post, error) {
			return h.svc.Create(c.Request.Context(), caller, *in)
		},
	})

	ez.RegisterAction(g, ez.Action[service.UpdatePostInput, *domain.Post]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, in *service.UpdatePostInput) (*domain.Post, error) {
			return h.svc.Update(c.Request.Context(), caller, c.Param("id"), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, resp.Msg]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (resp.Msg, error) {
			if err := h.svc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
				return "", err
			}
			return "Post deleted successfully", nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Post]{
		Method: http.MethodPost,
		Path:   "/:id/upvote",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (*domain.Post, error) {
			return h.svc.ToggleUpvote(c.Request.Context(), caller, c.Param("id"))
		},
	})

	ez.RegisterAction(g, ez.Action[service.VerifyPostInput, *domain.Post]{
		Method: http.MethodPut,
		Path:   "/:id/verify",
		Binder: ez.BindJSON,
		Auth:   ez.AuthRequired,
		Roles:  []domain.Role{domain.RoleAdmin, domain.RoleFaculty},
		Handler: func(c *gin.Context, caller *domain.User, in *service.VerifyPostInput) (*domain.Post, error) {
			return h.svc.Verify(c.Request.Context(), caller, c.Param("id"), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Post]{
		Method: http.MethodPut,
		Path:   "/:id/pin",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (*domain.Post, error) {
			return h.svc.TogglePin(c.Request.Context(), caller, c.Param("id"))
		},
	})
}
