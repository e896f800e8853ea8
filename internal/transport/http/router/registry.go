package router

import "campusconnect/internal/transport/http/ez"

// Module 每个 handler 把自己的路由挂到给定分组上
type Module interface{ Mount(ez.EZ) }

// MountAll 按传入顺序挂载，顺序即路由表顺序
func MountAll(g ez.EZ, mods ...Module) {
	for _, m := range mods {
		m.Mount(g)
	}
}
