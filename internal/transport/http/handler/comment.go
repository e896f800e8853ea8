package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/domain"
	"campusconnect/internal/service"
	"campusconnect/internal/transport/http/ez"
	resp "campusconnect/internal/transport/http/response"
)

type CommentHandler struct{ svc *service.CommentService }

func NewCommentHandler(svc *service.CommentService) *CommentHandler { return &CommentHandler{svc: svc} }

// Mount 注意：gin 同一位置的通配符必须同名，所以 GET/POST /comments/:id 里的 id 是帖子 id
func (h *CommentHandler) Mount(api ez.EZ) {
	g := api.Group("/comments")

	ez.RegisterAction(g, ez.Action[service.PageInput, *domain.Page[domain.Comment]]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *domain.User, in *service.PageInput) (*domain.Page[domain.Comment], error) {
			return h.svc.List(c.Request.Context(), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[service.CreateCommentInput, *domain.Comment]{
		Method: http.MethodPost,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   ez.AuthOptional,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller *domain.User, in *service.CreateCommentInput) (*domain.Comment, error) {
			return h.svc.Create(c.Request.Context(), caller, c.Param("id"), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[service.UpdateCommentInput, *domain.Comment]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, in *service.UpdateCommentInput) (*domain.Comment, error) {
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
			return "Comment deleted successfully", nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Comment]{
		Method: http.MethodPost,
		Path:   "/:id/upvote",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (*domain.Comment, error) {
			return h.svc.ToggleUpvote(c.Request.Context(), caller, c.Param("id"))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Comment]{
		Method: http.MethodPut,
		Path:   "/:id/verify",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Roles:  []domain.Role{domain.RoleAdmin, domain.RoleFaculty},
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (*domain.Comment, error) {
			return h.svc.ToggleVerify(c.Request.Context(), caller, c.Param("id"))
		},
	})
}
