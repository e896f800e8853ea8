package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/domain"
	mdw "campusconnect/internal/transport/http/middleware"
	resp "campusconnect/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AuthMode 决定路由如何解析调用者
type AuthMode int

const (
	AuthNone     AuthMode = iota // 不解析 token
	AuthOptional                 // 有合法 token 就带上调用者，否则匿名
	AuthRequired                 // 必须登录
)

// Action 一行注册一个接口：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/posts/:id/upvote"
	Binder  Binder
	Auth    AuthMode
	Roles   []domain.Role // 仅 AuthRequired 时生效，空表示不限
	Status  int           // 成功状态码，默认 200
	Handler func(c *gin.Context, caller *domain.User, in *I) (O, error)
}

// EZ 绑定一个路由分组和鉴权器
type EZ struct {
	g     *gin.RouterGroup
	authn mdw.Authenticator
}

func New(g *gin.RouterGroup, authn mdw.Authenticator) EZ { return EZ{g: g, authn: authn} }

func (e EZ) Group(path string, handlers ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, handlers...), authn: e.authn}
}

func (e EZ) caller(c *gin.Context, mode AuthMode, roles []domain.Role) (*domain.User, error) {
	switch mode {
	case AuthRequired:
		u, err := mdw.Resolve(c, e.authn)
		if err != nil {
			return nil, err
		}
		if !mdw.HasRole(u, roles) {
			return nil, domain.Forbidden("role " + string(u.Role) + " is not allowed here")
		}
		return u, nil
	case AuthOptional:
		u, _ := mdw.Resolve(c, e.authn)
		return u, nil
	default:
		return mdw.Caller(c), nil
	}
}

func bind(c *gin.Context, b Binder, in any) error {
	var err error
	switch b {
	case BindJSON:
		err = c.ShouldBindJSON(in)
		if errors.Is(err, io.EOF) {
			// 空 body 等价于 {}，交给业务校验 required
			err = nil
		}
	case BindQuery:
		err = c.ShouldBindQuery(in)
	default: // BindNone: 不绑定
		return nil
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &domain.AppError{Code: http.StatusRequestEntityTooLarge, Msg: "request body too large"}
	}
	return domain.Validation("invalid request: " + err.Error())
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		caller, err := e.caller(c, a.Auth, a.Roles)
		if err != nil {
			resp.Fail(c, err)
			return
		}

		// 2) 绑定入参
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			resp.Fail(c, err)
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, caller, &in)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, a.Status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
