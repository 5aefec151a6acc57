// Package main is the entry point for the nodeshim server.
//
// nodeshim runs untrusted JavaScript against a Node-flavoured module set:
// require('path') is a Windows-style lexical path algebra, every other
// built-in is a stub. Nothing ever touches the real filesystem.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve the HTTP API
//	./server -port 8000 -base 'D:\app'
//
//	# Use a custom module manifest
//	./server -manifest modules.toml
//
//	# Run one script and print the result as JSON
//	./server -exec script.js
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
