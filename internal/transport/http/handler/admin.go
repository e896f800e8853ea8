package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/domain"
	"campusconnect/internal/service"
	"campusconnect/internal/transport/http/ez"
	resp "campusconnect/internal/transport/http/response"
)

// AdminHandler 挂在已经过 RequireAuth(Admin) 的分组上，这里不再重复校验角色
type AdminHandler struct{ svc *service.AdminService }

func NewAdminHandler(svc *service.AdminService) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) Mount(admin ez.EZ) {
	// --- 用户列表 ---
	ez.RegisterAction(admin, ez.Action[service.ListUsersInput, *domain.Page[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, _ *domain.User, in *service.ListUsersInput) (*domain.Page[domain.User], error) {
			return h.svc.ListUsers(c.Request.Context(), *in)
		},
	})

	// --- 改角色 / 启停用 ---
	ez.RegisterAction(admin, ez.Action[service.UpdateUserInput, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: ez.BindJSON,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, in *service.UpdateUserInput) (*domain.User, error) {
			return h.svc.UpdateUser(c.Request.Context(), caller, c.Param("id"), *in)
		},
	})

	// --- 删除（有内容的用户会被拒绝，改用停用） ---
	ez.RegisterAction(admin, ez.Action[struct{}, resp.Msg]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (resp.Msg, error) {
			if err := h.svc.DeleteUser(c.Request.Context(), caller, c.Param("id")); err != nil {
				return "", err
			}
			return "User deleted successfully", nil
		},
	})

	ez.RegisterAction(admin, ez.Action[struct{}, *service.Stats]{
		Method: http.MethodGet,
		Path:   "/stats",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, _ *domain.User, _ *struct{}) (*service.Stats, error) {
			return h.svc.Stats(c.Request.Context())
		},
	})

	ez.RegisterAction(admin, ez.Action[service.AdminListPostsInput, *domain.Page[domain.Post]]{
		Method: http.MethodGet,
		Path:   "/posts",
		Binder: ez.BindQuery,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, _ *domain.User, in *service.AdminListPostsInput) (*domain.Page[domain.Post], error) {
			return h.svc.ListPosts(c.Request.Context(), *in)
		},
	})
}
