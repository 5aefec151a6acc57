package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())
	rec := m.NewRecorder()

	rec.RecordLookup("fs", false)
	rec.RecordLookup("fs", true)
	rec.RecordLookup("fs", true)
	rec.RecordConstruct("fs", time.Millisecond, nil)
	rec.RecordConstruct("tls", time.Millisecond, errors.New("boom"))
	rec.RecordDepthExceeded("loop")
	rec.RecordProgress()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequireLookups.WithLabelValues("fs", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequireLookups.WithLabelValues("fs", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Constructions.WithLabelValues("fs", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Constructions.WithLabelValues("tls", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DepthExceeded.WithLabelValues("loop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProgressTicks))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ModulesBuilt)
	assert.Equal(t, int64(1), snap.DepthLimitReached)
}

func TestRecordExecution(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.RecordExecution(10*time.Millisecond, 3, nil)
	m.RecordExecution(time.Millisecond, 0, errors.New("syntax"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("error")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Executions)
	assert.Equal(t, int64(1), snap.FailedExecutions)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestSeparateRegistries(t *testing.T) {
	// two collectors must not clash on metric names
	a := NewMetrics()
	b := NewMetrics()

	families, err := a.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
	assert.NotSame(t, a.Registry(), b.Registry())
}
