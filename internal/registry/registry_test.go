package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	hits, misses, constructs, exceeded, progress int
}

func (c *countingRecorder) RecordLookup(_ string, hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func (c *countingRecorder) RecordConstruct(string, time.Duration, error) { c.constructs++ }
func (c *countingRecorder) RecordDepthExceeded(string) { c.exceeded++ }
func (c *countingRecorder) RecordProgress() { c.progress++ }

func TestLookupConstructsOnce(t *testing.T) {
	reg := New(Options{})

	builds := 0
	require.NoError(t, reg.Define("util", func(*Registry) (Value, error) {
		builds++
		return &struct{ name string }{name: "util"}, nil
	}))

	assert.False(t, reg.Constructed("util"))

	first, err := reg.Lookup("util")
	require.NoError(t, err)
	second, err := reg.Lookup("util")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
	assert.True(t, reg.Constructed("util"))
}

func TestRequireMemoizesAcrossCalls(t *testing.T) {
	rec := &countingRecorder{}
	reg := New(Options{Recorder: rec})

	builds := 0
	require.NoError(t, reg.Define("events", func(*Registry) (Value, error) {
		builds++
		return "emitter", nil
	}))

	for i := 0; i < 3; i++ {
		v, err := reg.Require("events")
		require.NoError(t, err)
		assert.Equal(t, "emitter", v)
	}

	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 1, rec.constructs)
	assert.Equal(t, 0, reg.Depth())
}

func TestUnknownSpecifier(t *testing.T) {
	reg := New(Options{})

	_, err := reg.Lookup("missing")
	assert.True(t, IsUnknownSpecifier(err))

	_, err = reg.Require("missing")
	assert.True(t, errors.Is(err, ErrUnknownSpecifier))
	assert.Equal(t, 0, reg.Depth())
}

func TestSpecifierNormalization(t *testing.T) {
	reg := New(Options{})
	require.NoError(t, reg.Define("fs/promises", func(*Registry) (Value, error) {
		return 1, nil
	}))

	for _, spec := range []string{"fs/promises", `fs\promises`, "node:fs/promises"} {
		v, err := reg.Require(spec)
		require.NoError(t, err, spec)
		assert.Equal(t, 1, v)
	}
	assert.True(t, reg.Has(`node:fs\promises`))
}

func TestDepthGuard(t *testing.T) {
	rec := &countingRecorder{}
	reg := New(Options{Recorder: rec})

	calls := 0
	require.NoError(t, reg.Define("loop", func(r *Registry) (Value, error) {
		calls++
		return r.Require("loop")
	}))

	before := reg.Depth()
	_, err := reg.Require("loop")
	require.Error(t, err)

	assert.True(t, IsMaxDepthExceeded(err))
	var reqErr *RequireError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "loop", reqErr.Specifier)
	assert.Equal(t, DefaultMaxDepth+1, reqErr.Depth)

	assert.Equal(t, DefaultMaxDepth, calls)
	assert.Equal(t, before, reg.Depth())
	assert.Equal(t, 1, rec.exceeded)
	assert.False(t, reg.Constructed("loop"), "failed construction must not fill the slot")
}

func TestDepthGuardCustomLimit(t *testing.T) {
	reg := New(Options{MaxDepth: 2})

	require.NoError(t, reg.Define("a", func(r *Registry) (Value, error) { return r.Require("b") }))
	require.NoError(t, reg.Define("b", func(r *Registry) (Value, error) { return r.Require("c") }))
	require.NoError(t, reg.Define("c", func(*Registry) (Value, error) { return "c", nil }))

	_, err := reg.Require("a")
	assert.True(t, IsMaxDepthExceeded(err))
	assert.Equal(t, 0, reg.Depth())

	v, err := reg.Require("b")
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	// b is cached now, so a only nests one level deeper
	v, err = reg.Require("a")
	require.NoError(t, err)
	assert.Equal(t, "c", v)
}

func TestDepthRestoredOnConstructorError(t *testing.T) {
	reg := New(Options{})
	boom := errors.New("boom")

	attempts := 0
	require.NoError(t, reg.Define("flaky", func(*Registry) (Value, error) {
		attempts++
		if attempts == 1 {
			return nil, boom
		}
		return "ok", nil
	}))

	_, err := reg.Require("flaky")
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, reg.Depth())
	assert.False(t, reg.Constructed("flaky"))

	v, err := reg.Require("flaky")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestDepthRestoredOnPanic(t *testing.T) {
	reg := New(Options{})
	require.NoError(t, reg.Define("panics", func(*Registry) (Value, error) {
		panic("constructor exploded")
	}))

	assert.Panics(t, func() { _, _ = reg.Require("panics") })
	assert.Equal(t, 0, reg.Depth())
}

func TestProgressCallback(t *testing.T) {
	ticks := 0
	rec := &countingRecorder{}
	reg := New(Options{OnProgress: func() { ticks++ }, Recorder: rec})
	require.NoError(t, reg.Define("util", func(*Registry) (Value, error) { return 1, nil }))

	for i := 0; i < DefaultProgressInterval-1; i++ {
		_, _ = reg.Require("util")
	}
	assert.Equal(t, 0, ticks)
	assert.Equal(t, DefaultProgressInterval-1, reg.Calls())

	_, _ = reg.Require("util")
	assert.Equal(t, 1, ticks)
	assert.Equal(t, 0, reg.Calls())

	// unknown specifiers still count
	for i := 0; i < DefaultProgressInterval; i++ {
		_, _ = reg.Require("missing")
	}
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 2, rec.progress)
}

func TestDefine(t *testing.T) {
	reg := New(Options{})
	ctor := func(*Registry) (Value, error) { return nil, nil }

	require.NoError(t, reg.Define("os", ctor))
	assert.True(t, errors.Is(reg.Define("node:os", ctor), ErrDuplicateSpecifier))
	assert.Error(t, reg.Define("", ctor))
	assert.Error(t, reg.Define("net", nil))

	reg.Seal()
	assert.True(t, errors.Is(reg.Define("net", ctor), ErrRegistrySealed))

	assert.Equal(t, []string{"os"}, reg.Specifiers())
	stats := reg.Stats()
	assert.Equal(t, 1, stats["known"])
	assert.Equal(t, 0, stats["constructed"])
	assert.Equal(t, true, stats["sealed"])
}
