// Package server provides HTTP server setup for nodeshim.
//
// This package wires the components together:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, request IDs, metrics, CORS, rate limiting)
//   - Module manifest loading
//   - The sandbox pool every /execute request runs in
//
// Routes:
//
//	GET  /                 service banner
//	GET  /health           pool and manifest status
//	GET  /modules          known module specifiers, ?match= filters by glob
//	POST /path/normalize   {"paths": [p]}
//	POST /path/join        {"paths": [p...]}
//	POST /path/resolve     {"paths": [p...], "base": "C:\\dir"}
//	POST /path/relative    {"paths": [from, to], "base": "C:\\dir"}
//	POST /execute          {"script": "..."}
//	GET  /metrics          Prometheus exposition
//	GET  /metrics/json     metrics snapshot
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run()
package server
