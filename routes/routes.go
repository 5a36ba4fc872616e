// Package routes wires controllers onto a gin engine.
//
//   - api.go: /v1 query and admin routes, probes, metrics
//   - web.go: banner and route index
//   - middleware.go: request ID and zap request logging
//
// Usage:
//
//	routes.SetupAllRoutes(router, routes.Controllers{...}, logger)
package routes
