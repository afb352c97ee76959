// Package router groups HTTP routes by surface and mounts them under a
// versioned API prefix.
package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RouteGroup collects the routes of one surface (system, sync, webhooks)
// together with the middleware that guards them. Nothing touches the engine
// until Attach.
type RouteGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*RouteGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewRouteGroup creates an empty group mounted at prefix
func NewRouteGroup(name, prefix string) *RouteGroup {
	return &RouteGroup{name: name, prefix: prefix}
}

// Use appends middleware applied to every route of the group and its children
func (g *RouteGroup) Use(middleware ...gin.HandlerFunc) *RouteGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// Handle adds a route
func (g *RouteGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *RouteGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// GET adds a GET route
func (g *RouteGroup) GET(path string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodGet, path, handlers...)
}

// POST adds a POST route
func (g *RouteGroup) POST(path string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPost, path, handlers...)
}

// Group adds a child group inheriting this group's middleware
func (g *RouteGroup) Group(name, prefix string) *RouteGroup {
	child := NewRouteGroup(name, prefix)
	g.children = append(g.children, child)
	return child
}

// Attach registers the group under parent
func (g *RouteGroup) Attach(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
	for _, child := range g.children {
		child.Attach(rg)
	}
}

// Name returns the group name
func (g *RouteGroup) Name() string {
	return g.name
}

// Routes lists "METHOD path" for every route in the group and its children,
// relative to the group's parent
func (g *RouteGroup) Routes() []string {
	out := make([]string, 0, len(g.routes))
	for _, r := range g.routes {
		out = append(out, r.method+" "+g.prefix+r.path)
	}
	for _, child := range g.children {
		for _, line := range child.Routes() {
			method, path, _ := strings.Cut(line, " ")
			out = append(out, method+" "+g.prefix+path)
		}
	}
	return out
}
