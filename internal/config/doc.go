// Package config provides 12-factor configuration management for the nodeshim server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Sandbox: Base directory, execution timeout and runtime pool size
//   - Registry: Require depth limit, progress interval and module manifest
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - BASE_DIR, SANDBOX_TIMEOUT, SANDBOX_POOL_SIZE
//   - MAX_REQUIRE_DEPTH, PROGRESS_INTERVAL, MANIFEST_PATH
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
