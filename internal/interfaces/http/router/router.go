// Package router mounts the API areas under a versioned prefix.
package router

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// Mounter attaches its routes below a parent group
type Mounter interface {
	Mount(parent *gin.RouterGroup)
}

// Router mounts API areas on a gin engine under /api/<version>
type Router struct {
	engine  *gin.Engine
	version string
	areas   []Mounter
	chain   []gin.HandlerFunc
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion replaces the default "v1" prefix
func WithAPIVersion(version string) Option {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use appends middleware for API routes only. Routes added to the engine
// itself, such as /health, do not see it.
func (r *Router) Use(handlers ...gin.HandlerFunc) *Router {
	r.chain = append(r.chain, handlers...)
	return r
}

// Mount queues areas for Setup
func (r *Router) Mount(areas ...Mounter) *Router {
	r.areas = append(r.areas, areas...)
	return r
}

func (r *Router) BasePath() string {
	return "/api/" + r.version
}

// Setup adds every queued area to the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath(), r.chain...)
	for _, area := range r.areas {
		area.Mount(api)
	}
}

// RouteInfo is one method and path pair served by the engine
type RouteInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Routes lists what the engine serves, ordered by path then method
func (r *Router) Routes() []RouteInfo {
	served := r.engine.Routes()
	out := make([]RouteInfo, len(served))
	for i, rt := range served {
		out[i] = RouteInfo{Method: rt.Method, Path: rt.Path}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Method < out[j].Method
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Area is the set of routes of one resource, e.g. /tenants. Areas nest.
type Area struct {
	name     string
	prefix   string
	guards   []gin.HandlerFunc
	entries  []entry
	children []*Area
}

type entry struct {
	method  string
	path    string
	handler []gin.HandlerFunc
}

func NewArea(name, prefix string) *Area {
	return &Area{name: name, prefix: prefix}
}

func (a *Area) Name() string   { return a.name }
func (a *Area) Prefix() string { return a.prefix }

// Use adds middleware run before every route of the area and its children
func (a *Area) Use(handlers ...gin.HandlerFunc) *Area {
	a.guards = append(a.guards, handlers...)
	return a
}

// Handle adds a route relative to the area prefix
func (a *Area) Handle(method, path string, handlers ...gin.HandlerFunc) *Area {
	a.entries = append(a.entries, entry{method: method, path: path, handler: handlers})
	return a
}

func (a *Area) GET(path string, h ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodGet, path, h...)
}

func (a *Area) POST(path string, h ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodPost, path, h...)
}

func (a *Area) PUT(path string, h ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodPut, path, h...)
}

func (a *Area) PATCH(path string, h ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodPatch, path, h...)
}

func (a *Area) DELETE(path string, h ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodDelete, path, h...)
}

// Nest creates a child area below this one's prefix
func (a *Area) Nest(name, prefix string) *Area {
	child := NewArea(name, prefix)
	a.children = append(a.children, child)
	return child
}

// Mount implements Mounter
func (a *Area) Mount(parent *gin.RouterGroup) {
	g := parent.Group(a.prefix, a.guards...)
	for _, e := range a.entries {
		g.Handle(e.method, e.path, e.handler...)
	}
	for _, child := range a.children {
		child.Mount(g)
	}
}

// Len counts the routes of the area including its children
func (a *Area) Len() int {
	n := len(a.entries)
	for _, child := range a.children {
		n += child.Len()
	}
	return n
}
