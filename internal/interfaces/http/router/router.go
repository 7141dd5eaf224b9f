package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a plain function to the RouteRegistrar interface
type RegistrarFunc func(rg *gin.RouterGroup)

// RegisterRoutes implements RouteRegistrar
func (f RegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) {
	f(rg)
}

// Router manages HTTP route registration. Public registrars are mounted
// directly under the versioned API group, protected registrars behind the
// auth middleware.
type Router struct {
	engine         *gin.Engine
	apiVersion     string
	authMiddleware gin.HandlerFunc
	public         []RouteRegistrar
	protected      []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAuthMiddleware sets the middleware guarding protected registrars
func WithAuthMiddleware(mw gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.authMiddleware = mw
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a public RouteRegistrar
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.public = append(r.public, registrars...)
	return r
}

// RegisterProtected adds a RouteRegistrar mounted behind the auth middleware
func (r *Router) RegisterProtected(registrars ...RouteRegistrar) *Router {
	r.protected = append(r.protected, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.public {
		registrar.RegisterRoutes(api)
	}

	guarded := api.Group("")
	if r.authMiddleware != nil {
		guarded.Use(r.authMiddleware)
	}
	for _, registrar := range r.protected {
		registrar.RegisterRoutes(guarded)
	}
}
