package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/nodeshim/internal/registry"
	"github.com/GriffinCanCode/nodeshim/internal/shared/paths"
	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runtime wraps goja VM with security controls and a module registry
type Runtime struct {
	vm       *goja.Runtime
	registry *registry.Registry
	config   Config
	base     paths.Base
	logger   *zap.Logger
	mu       sync.Mutex

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex

	// Per-execution state, only touched on the VM goroutine
	ctx      context.Context
	requires []string
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	base, err := paths.ParseBase(config.BaseDirectory)
	if err != nil {
		return nil, err
	}
	if config.Manifest == nil {
		config.Manifest = registry.DefaultManifest()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	r := &Runtime{
		config: config,
		base:   base,
		logger: config.Logger.Named("sandbox"),
		ctx:    context.Background(),
	}

	if err := r.setup(); err != nil {
		return nil, err
	}
	return r, nil
}

// setup builds a fresh VM and registry
func (r *Runtime) setup() error {
	r.vm = goja.New()
	if r.config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	r.console = []LogEntry{}

	r.registry = registry.New(registry.Options{
		MaxDepth:         r.config.MaxRequireDepth,
		ProgressInterval: r.config.ProgressInterval,
		OnProgress:       r.onProgress,
		Logger:           r.logger,
		Recorder:         r.config.Recorder,
	})
	if _, err := registry.NewSeeder(r.registry, moduleFactory{rt: r}, r.logger).Seed(r.config.Manifest); err != nil {
		return fmt.Errorf("failed to seed modules: %w", err)
	}

	return r.setupGlobals()
}

// Execute runs JavaScript code with timeout and resource limits
func (r *Runtime) Execute(ctx context.Context, script string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, fmt.Errorf("sandbox is closed")
	}

	start := time.Now()
	result := &Result{
		ID:      uuid.New().String(),
		Console: []LogEntry{},
	}

	r.ctx = ctx
	r.requires = nil
	defer func() { r.ctx = context.Background() }()

	// Setup timeout
	timer := time.NewTimer(r.config.Timeout)
	defer timer.Stop()

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-timer.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	// Clear console
	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	val, err := r.vm.RunString(script)
	close(done)
	<-stopped
	r.vm.ClearInterrupt()

	result.Duration = time.Since(start)
	result.Requires = append([]string{}, r.requires...)

	// Collect console output
	r.consoleMu.Lock()
	result.Console = append([]LogEntry{}, r.console...)
	r.consoleMu.Unlock()

	if err != nil {
		result.Error = err
		r.logger.Debug("Script failed",
			zap.String("id", result.ID),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
		return result, err
	}

	result.Value = r.exportValue(val)
	return result, nil
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	vm := r.vm

	vm.Set("process", goja.Undefined())
	vm.Set("require", r.require)

	module := vm.NewObject()
	exports := vm.NewObject()
	module.Set("exports", exports)
	vm.Set("module", module)
	vm.Set("exports", exports)

	vm.Set("__dirname", r.base.String())
	vm.Set("__filename", paths.Join(r.base.String(), "index.js"))

	// Setup console if enabled
	if r.config.EnableConsole {
		console := vm.NewObject()
		console.Set("log", r.makeConsoleFunc("log"))
		console.Set("warn", r.makeConsoleFunc("warn"))
		console.Set("error", r.makeConsoleFunc("error"))
		console.Set("info", r.makeConsoleFunc("info"))
		vm.Set("console", console)
	}

	// Setup timers (no-op for security)
	for _, name := range []string{"setTimeout", "setInterval", "setImmediate", "clearTimeout", "clearInterval", "clearImmediate"} {
		vm.Set(name, noop)
	}

	return nil
}

// require is the JS entry point into the registry. Failures are thrown.
func (r *Runtime) require(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	spec, ok := arg.Export().(string)
	if !ok {
		panic(r.vm.NewTypeError("module specifier must be a string, got %s", arg.String()))
	}

	r.requires = append(r.requires, registry.NormalizeSpecifier(spec))

	value, err := r.registry.Require(spec)
	if err != nil {
		panic(r.vm.NewGoError(err))
	}
	return r.vm.ToValue(value)
}

// onProgress runs every ProgressInterval require calls
func (r *Runtime) onProgress() {
	r.logger.Debug("Require progress",
		zap.Int("depth", r.registry.Depth()),
		zap.Int("requires", len(r.requires)))

	if err := r.ctx.Err(); err != nil {
		r.vm.Interrupt(err.Error())
	}
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// exportValue converts goja value to Go value
func (r *Runtime) exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Registry returns the runtime's module registry
func (r *Runtime) Registry() *registry.Registry {
	return r.registry
}

// Base returns the runtime's base directory
func (r *Runtime) Base() paths.Base {
	return r.base
}

// Reset discards the VM, the console and every constructed module
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.setup()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.registry = nil
	r.console = nil
	return nil
}
