package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"campusconnect/internal/core/server"
	"campusconnect/internal/transport/http/ez"
	"campusconnect/internal/transport/http/handler"
	mdw "campusconnect/internal/transport/http/middleware"
	resp "campusconnect/internal/transport/http/response"
)

type Limits struct {
	RPS           float64
	Burst         int
	GlobalRPS     float64 // <=0 不挂全局限速
	GlobalBurst   int
	MaxConcurrent int64
	MaxBodyBytes  int64
	Timeout       time.Duration
}

type Deps struct {
	Log           *zap.Logger
	Authn         mdw.Authenticator
	Auth          *handler.AuthHandler
	Posts         *handler.PostHandler
	Comments      *handler.CommentHandler
	Notifications *handler.NotificationHandler
	Admin         *handler.AdminHandler
	WS            http.Handler // nil 时不挂 /ws
	Ready         func() error // /health 的就绪检查，可为 nil
	Online        func() int   // 在线用户数，可为 nil
}

type Options struct {
	Server server.Options
	Limits Limits
}

func NewAPIEngine(d Deps, opt Options) *gin.Engine {
	r := server.NewRouter(opt.Server)

	// 全局：所有路由（含 /ws）都要有 rid、panic 兜底、指标和访问日志
	r.Use(
		mdw.RequestID(),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)
	perIP := mdw.RateLimitPerIP(rate.Limit(opt.Limits.RPS), opt.Limits.Burst)

	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound) })

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, resp.Error(http.StatusServiceUnavailable, "not ready"))
				return
			}
		}
		out := resp.Resp{Success: true, Message: "CampusConnect API"}
		if d.Online != nil {
			out.Data = gin.H{"online": d.Online()}
		}
		c.JSON(http.StatusOK, out)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 长连接不能占并发槽，也不受请求超时约束
	if d.WS != nil {
		r.GET("/ws", perIP, gin.WrapH(d.WS))
	}

	// 先挡单个 IP，再挡整体流量
	chain := []gin.HandlerFunc{perIP}
	if opt.Limits.GlobalRPS > 0 {
		chain = append(chain, mdw.RateLimit(rate.Limit(opt.Limits.GlobalRPS), opt.Limits.GlobalBurst))
	}
	chain = append(chain,
		mdw.ConcurrencyLimit(opt.Limits.MaxConcurrent),
		mdw.MaxBodyBytes(opt.Limits.MaxBodyBytes),
		mdw.Timeout(opt.Limits.Timeout),
	)
	api := r.Group("/api", chain...)
	e := ez.New(api, d.Authn)
	MountAll(e, d.Auth, d.Posts, d.Comments, d.Notifications)
	mountAdmin(e, d)

	return r
}
