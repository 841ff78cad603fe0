package module

import (
	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/samber/lo"
	"github.com/wheelibin/homeserver/internal/config"
	"github.com/wheelibin/homeserver/internal/hue"
	"github.com/wheelibin/homeserver/internal/repos"
	"github.com/wheelibin/homeserver/internal/router"
	"github.com/wheelibin/homeserver/internal/storage"
)

// Env is the application context shared by every module. It is built once at
// start up.
type Env struct {
	Logger  *log.Logger
	Config  config.Config
	Router  *router.Router
	Modules *Manager
	Store   *storage.Store
	Hue     *hue.Service
	// nil when the database could not be opened
	History *repos.UpdateRepo
	Events  *sse.Server
}

// Route is one entry of a module's route table.
type Route struct {
	Method  string
	Pattern string
	Handler router.HandlerFunc
}

// Module is a unit of functionality exposed over HTTP. Routes returns the
// module's route table with handlers bound to the instance.
type Module interface {
	Routes() []Route
}

// Constructor builds a module against the shared environment.
type Constructor func(env *Env) (Module, error)

// Register adds every route of the table to rt, in table order. If any route is
// invalid none of them are added.
func Register(rt *router.Router, routes []Route) error {
	return rt.AddRoutes(lo.Map(routes, func(r Route, _ int) router.Entry {
		return router.Entry{Method: r.Method, Pattern: r.Pattern, Handler: r.Handler}
	}))
}
