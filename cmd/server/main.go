package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/nodeshim/internal/config"
	"github.com/GriffinCanCode/nodeshim/internal/logging"
	"github.com/GriffinCanCode/nodeshim/internal/sandbox"
	"github.com/GriffinCanCode/nodeshim/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	base := flag.String("base", cfg.Sandbox.BaseDirectory, "Base directory for path.resolve and __dirname")
	manifest := flag.String("manifest", cfg.Registry.ManifestPath, "Module manifest (.yaml or .toml), empty for the built-in one")
	execFile := flag.String("exec", "", "Run one script and print the result as JSON instead of serving")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Sandbox.BaseDirectory = *base
	cfg.Registry.ManifestPath = *manifest
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *execFile != "" {
		code := runOnce(cfg, logger, *execFile)
		logger.Sync()
		os.Exit(code)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		srv.Close()
		if err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}
}

// execOutput is what -exec prints
type execOutput struct {
	ID         string             `json:"id"`
	Value      interface{}        `json:"value"`
	Console    []sandbox.LogEntry `json:"console"`
	Requires   []string           `json:"requires"`
	DurationMS int64              `json:"duration_ms"`
	Error      string             `json:"error,omitempty"`
}

// runOnce executes one script file and prints its result, returning the exit code
func runOnce(cfg *config.Config, logger *logging.Logger, file string) int {
	script, err := os.ReadFile(file)
	if err != nil {
		logger.Error("Failed to read script", zap.String("file", file), zap.Error(err))
		return 1
	}

	manifest, err := server.LoadManifest(cfg)
	if err != nil {
		logger.Error("Failed to load module manifest", zap.Error(err))
		return 1
	}

	rt, err := sandbox.New(server.SandboxConfig(cfg, manifest, logger))
	if err != nil {
		logger.Error("Failed to create sandbox", zap.Error(err))
		return 1
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, execErr := rt.Execute(ctx, string(script))
	if result == nil {
		logger.Error("Execution failed", zap.Error(execErr))
		return 1
	}

	out := execOutput{
		ID:         result.ID,
		Value:      result.Value,
		Console:    result.Console,
		Requires:   result.Requires,
		DurationMS: result.Duration.Milliseconds(),
	}
	if execErr != nil {
		out.Error = execErr.Error()
	}

	data, err := sonic.MarshalIndent(out, "", "  ")
	if err != nil {
		// exported JS functions have no JSON form
		out.Value = fmt.Sprintf("%v", out.Value)
		data, err = sonic.MarshalIndent(out, "", "  ")
	}
	if err != nil {
		logger.Error("Failed to encode result", zap.Error(err))
		return 1
	}

	fmt.Println(string(data))
	if execErr != nil {
		return 2
	}
	return 0
}
