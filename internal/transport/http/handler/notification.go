package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/domain"
	"campusconnect/internal/service"
	"campusconnect/internal/transport/http/ez"
	resp "campusconnect/internal/transport/http/response"
)

type NotificationHandler struct{ svc *service.NotificationService }

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Mount(api ez.EZ) {
	g := api.Group("/notifications")

	ez.RegisterAction(g, ez.Action[service.NotificationListInput, *service.NotificationPage]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, in *service.NotificationListInput) (*service.NotificationPage, error) {
			return h.svc.List(c.Request.Context(), caller, *in)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, resp.Resp]{
		Method: http.MethodPut,
		Path:   "/read-all",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (resp.Resp, error) {
			n, err := h.svc.MarkAllRead(c.Request.Context(), caller)
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.Resp{Success: true, Message: "All notifications marked as read", Data: gin.H{"updated": n}}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Notification]{
		Method: http.MethodPut,
		Path:   "/:id/read",
		Binder: ez.BindNone,
		Auth:   ez.AuthRequired,
		Handler: func(c *gin.Context, caller *domain.User, _ *struct{}) (*domain.Notification, error) {
			return h.svc.MarkRead(c.Request.Context(), caller, c.Param("id"))
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
			return "Notification deleted successfully", nil
		},
	})
}
