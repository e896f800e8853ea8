package router

import (
	"campusconnect/internal/domain"
	"campusconnect/internal/transport/http/ez"
	mdw "campusconnect/internal/transport/http/middleware"
)

// mountAdmin 管理端 /api/admin（统一要求 Admin 角色）
func mountAdmin(api ez.EZ, d Deps) {
	admin := api.Group("/admin", mdw.RequireAuth(d.Authn, domain.RoleAdmin))
	MountAll(admin, d.Admin)
}
