package sandbox

import (
	"fmt"

	"github.com/GriffinCanCode/nodeshim/internal/registry"
	"github.com/GriffinCanCode/nodeshim/internal/shared/paths"
	"github.com/dop251/goja"
)

// moduleFactory turns manifest entries into JS objects on the runtime's VM
type moduleFactory struct {
	rt *Runtime
}

// Build implements registry.Factory
func (f moduleFactory) Build(spec registry.ModuleSpec, deps map[string]registry.Value) (registry.Value, error) {
	switch spec.Kind {
	case registry.KindNative:
		build, ok := nativeModules[registry.NormalizeSpecifier(spec.Name)]
		if !ok {
			return nil, fmt.Errorf("no native implementation for %s", spec.Name)
		}
		return build(f.rt)
	default:
		return f.rt.stubModule(spec)
	}
}

var nativeModules = map[string]func(*Runtime) (*goja.Object, error){
	"path": (*Runtime).pathModule,
}

// pathModule exposes the path algebra anchored at the runtime's base
func (r *Runtime) pathModule() (*goja.Object, error) {
	vm := r.vm
	base := r.base
	obj := vm.NewObject()

	members := map[string]interface{}{
		"sep":       paths.Sep,
		"delimiter": paths.Delimiter,
		"normalize": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(paths.Normalize(r.pathArg(call)))
		},
		"join": func(call goja.FunctionCall) goja.Value {
			joined, err := paths.JoinValues(exportArgs(call))
			if err != nil {
				panic(vm.NewTypeError("%s", err.Error()))
			}
			return vm.ToValue(joined)
		},
		"resolve": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(paths.Resolve(base, r.stringArgs(call)...))
		},
		"relative": func(call goja.FunctionCall) goja.Value {
			args := r.stringArgs(call)
			if len(args) < 2 {
				panic(vm.NewTypeError("relative requires from and to"))
			}
			return vm.ToValue(paths.Relative(base, args[0], args[1]))
		},
		"isAbsolute": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(paths.IsAbsolute(r.pathArg(call)))
		},
		"dirname": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(paths.Dirname(r.pathArg(call)))
		},
		"extname": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(paths.Extname(r.pathArg(call)))
		},
		"basename": func(call goja.FunctionCall) goja.Value {
			p := r.pathArg(call)
			ext := ""
			if e := call.Argument(1); !goja.IsUndefined(e) {
				s, ok := e.Export().(string)
				if !ok {
					panic(vm.NewTypeError("ext must be a string, got %s", e.String()))
				}
				ext = s
			}
			return vm.ToValue(paths.Basename(p, ext))
		},
	}

	for name, member := range members {
		if err := obj.Set(name, member); err != nil {
			return nil, fmt.Errorf("failed to set path.%s: %w", name, err)
		}
	}
	return obj, nil
}

// stubModule builds an object of no-op functions and constants
func (r *Runtime) stubModule(spec registry.ModuleSpec) (*goja.Object, error) {
	obj := r.vm.NewObject()

	for _, member := range spec.Members {
		var value interface{}
		switch member.Kind {
		case registry.MemberConstant:
			value = member.Value
		case registry.MemberObject:
			value = r.vm.NewObject()
		default:
			fn := r.vm.ToValue(noop).ToObject(r.vm)
			if member.Doc != "" {
				_ = fn.Set("__doc__", member.Doc)
			}
			value = fn
		}
		if err := obj.Set(member.Name, value); err != nil {
			return nil, fmt.Errorf("failed to set %s.%s: %w", spec.Name, member.Name, err)
		}
	}

	if spec.Description != "" {
		_ = obj.Set("__doc__", spec.Description)
	}
	return obj, nil
}

func noop(goja.FunctionCall) goja.Value {
	return goja.Undefined()
}

func exportArgs(call goja.FunctionCall) []interface{} {
	values := make([]interface{}, len(call.Arguments))
	for i, arg := range call.Arguments {
		values[i] = arg.Export()
	}
	return values
}

// pathArg returns the first argument, throwing a TypeError unless it is a string
func (r *Runtime) pathArg(call goja.FunctionCall) string {
	arg := call.Argument(0)
	p, ok := arg.Export().(string)
	if !ok {
		panic(r.vm.NewTypeError("path must be a string, got %s", arg.String()))
	}
	return p
}

// stringArgs returns the call's arguments, throwing a TypeError for non-strings
func (r *Runtime) stringArgs(call goja.FunctionCall) []string {
	args, err := paths.Strings(exportArgs(call))
	if err != nil {
		panic(r.vm.NewTypeError("%s", err.Error()))
	}
	return args
}
