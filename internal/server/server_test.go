package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/nodeshim/internal/api/middleware"
	"github.com/GriffinCanCode/nodeshim/internal/config"
	"github.com/GriffinCanCode/nodeshim/internal/logging"
	"github.com/GriffinCanCode/nodeshim/internal/registry"
)

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Sandbox.PoolSize = 2
	cfg.RateLimit.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	srv, err := NewServer(cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func request(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t)

	w, body := request(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w, body = request(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, `C:\workspace`, body["base_dir"])
	sandboxStats := body["sandbox"].(map[string]interface{})
	assert.EqualValues(t, 2, sandboxStats["size"])
}

func TestListModules(t *testing.T) {
	srv := newTestServer(t)

	w, body := request(t, srv, http.MethodGet, "/modules", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, len(registry.DefaultManifest().Names()), body["count"])

	w, body = request(t, srv, http.MethodGet, "/modules?match=http*", "")
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	for _, m := range body["modules"].([]interface{}) {
		names = append(names, m.(map[string]interface{})["name"].(string))
	}
	assert.ElementsMatch(t, []string{"http", "https", "http2"}, names)

	w, _ = request(t, srv, http.MethodGet, "/modules?match=%5B", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPathEndpoints(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		want       string
	}{
		{
			name:       "normalize",
			path:       "/path/normalize",
			body:       `{"paths":["/foo/bar//baz/asdf/quux/.."]}`,
			wantStatus: http.StatusOK,
			want:       `\foo\bar\baz\asdf`,
		},
		{
			name:       "normalize needs one path",
			path:       "/path/normalize",
			body:       `{"paths":["a","b"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "join",
			path:       "/path/join",
			body:       `{"paths":["/foo","bar","baz/asdf","quux",".."]}`,
			wantStatus: http.StatusOK,
			want:       `\foo\bar\baz\asdf`,
		},
		{
			name:       "join rejects numbers",
			path:       "/path/join",
			body:       `{"paths":["a",1]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "resolve against server base",
			path:       "/path/resolve",
			body:       `{"paths":["/foo/bar","./baz"]}`,
			wantStatus: http.StatusOK,
			want:       `C:\foo\bar\baz`,
		},
		{
			name:       "resolve against request base",
			path:       "/path/resolve",
			body:       `{"paths":["x"],"base":"D:\\data"}`,
			wantStatus: http.StatusOK,
			want:       `D:\data\x`,
		},
		{
			name:       "resolve rejects relative base",
			path:       "/path/resolve",
			body:       `{"paths":["x"],"base":"data"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "relative",
			path:       "/path/relative",
			body:       `{"paths":["C:\\orandea\\test\\aaa","C:\\orandea\\impl\\bbb"]}`,
			wantStatus: http.StatusOK,
			want:       `..\..\impl\bbb`,
		},
		{
			name:       "relative identical",
			path:       "/path/relative",
			body:       `{"paths":["C:\\a","c:/A/"]}`,
			wantStatus: http.StatusOK,
			want:       "",
		},
		{
			name:       "relative needs two paths",
			path:       "/path/relative",
			body:       `{"paths":["C:\\a"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			path:       "/path/join",
			body:       `{"paths":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := request(t, srv, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.want, body["result"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestExecute(t *testing.T) {
	srv := newTestServer(t)

	w, body := request(t, srv, http.MethodPost, "/execute", `{"script":"require('path').join(__dirname, 'src', 'index.js')"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `C:\workspace\src\index.js`, body["value"])
	assert.Equal(t, []interface{}{"path"}, body["requires"])
	assert.NotEmpty(t, body["id"])

	w, body = request(t, srv, http.MethodPost, "/execute", `{"script":"console.log('hi'); require('left-pad')"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, body["error"], "unknown module specifier")
	assert.Len(t, body["console"], 1)

	w, _ = request(t, srv, http.MethodPost, "/execute", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, snap := request(t, srv, http.MethodGet, "/metrics/json", "")
	assert.EqualValues(t, 2, snap["executions"])
	assert.EqualValues(t, 1, snap["failed_executions"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	request(t, srv, http.MethodPost, "/execute", `{"script":"require('fs'); 1"}`)

	w, _ := request(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	text := w.Body.String()
	assert.Contains(t, text, "nodeshim_http_requests_total")
	assert.Contains(t, text, "nodeshim_sandbox_executions_total")
	assert.Contains(t, text, `nodeshim_registry_constructions_total{specifier="fs",status="ok"} 1`)
}

func TestRateLimitedServer(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerSecond = 1
		cfg.RateLimit.Burst = 1
	})

	w, _ := request(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = request(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestNewServerWithManifestFile(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "modules.toml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
[[modules]]
name = "path"
kind = "native"

[[modules]]
name = "leftpad"
`), 0o644))

	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Registry.ManifestPath = manifest
	})

	_, body := request(t, srv, http.MethodGet, "/modules", "")
	assert.EqualValues(t, 2, body["count"])

	w, body := request(t, srv, http.MethodPost, "/execute", `{"script":"typeof require('leftpad')"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "object", body["value"])
}

func TestNewServerErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Registry.ManifestPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewServer(cfg, nil)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Sandbox.BaseDirectory = "relative"
	_, err = NewServer(cfg, nil)
	assert.Error(t, err)
}
