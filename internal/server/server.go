// Package server owns the HTTP surface of the dispatcher node.
//
// Ownership boundary:
//   - gin engine construction, middleware, and route registration
//   - request/response JSON shapes for the exec and status endpoints
//
// Execution semantics live in internal/dispatch; the server only translates
// HTTP into dispatch calls and dispatch errors into status codes.
package server

import (
	"time"

	"github.com/edgemesh/meshexec/internal/dispatch"
	"github.com/edgemesh/meshexec/internal/node"
	"github.com/edgemesh/meshexec/internal/observability"
	"github.com/edgemesh/meshexec/internal/overlay"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Node is one dispatcher HTTP node: a gin engine bound to a dispatcher and
// the overlay it reports readiness for.
type Node struct {
	ID       string
	Addr     string
	Appeared time.Time

	dispatcher *dispatch.Dispatcher
	network    overlay.Network
	router     *gin.Engine
}

var _ node.Node = (*Node)(nil)

func Appear(id, addr string, corsOrigins []string, d *dispatch.Dispatcher, network overlay.Network) *Node {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Node{
		ID:         id,
		Addr:       addr,
		Appeared:   time.Now(),
		dispatcher: d,
		network:    network,
		router:     r,
	}
}

func (s *Node) NodeID() string {
	return s.ID
}

func (s *Node) Kind() string {
	return "dispatcher"
}

func (s *Node) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Node) Serve() error {
	s.RegisterRoutes()
	return s.router.Run(s.Addr)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
