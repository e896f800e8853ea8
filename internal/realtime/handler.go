package realtime

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"campusconnect/internal/core/auth"
)

// VerifyFunc resolves a bearer token to a user id.
type VerifyFunc func(token string) (uid string, err error)

// Handler upgrades GET /ws requests and runs the connection until it closes.
type Handler struct {
	hub      *Hub
	verify   VerifyFunc
	opts     Options
	upgrader websocket.Upgrader
}

// NewHandler 的 allowOrigins 为空时接受任意 Origin
func NewHandler(hub *Hub, verify VerifyFunc, opts Options, allowOrigins []string) *Handler {
	h := &Handler{hub: hub, verify: verify, opts: opts.withDefaults()}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowOrigins),
	}
	return h
}

func originChecker(allow []string) func(*http.Request) bool {
	if len(allow) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allow))
	for _, o := range allow {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[u.Scheme+"://"+u.Host]
		return ok
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid := h.authenticate(r)
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写了错误响应
		h.hub.log.Debug("upgrade", zap.Error(err))
		return
	}
	newConn(h.hub, ws, uid, h.opts).run()
}

// authenticate never rejects the upgrade. Without a valid token the
// connection stays open but cannot join while auth is required.
func (h *Handler) authenticate(r *http.Request) string {
	if h.verify == nil {
		return ""
	}
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return ""
	}
	uid, err := h.verify(token)
	if err != nil {
		return ""
	}
	return uid
}
