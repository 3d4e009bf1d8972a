package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick(t *testing.T) {
	c := NewCollector("mindmap")
	c.Tick(0.5, 3, 2)
	c.Tick(0.25, 4, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Ticks))
	assert.Equal(t, 0.25, testutil.ToFloat64(c.Alpha))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.Nodes))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Links))
}

func TestStorageResult(t *testing.T) {
	c := NewCollector("mindmap")
	c.StorageResult("save", nil, time.Millisecond)
	c.StorageResult("save", errors.New("locked"), time.Millisecond)
	c.StorageResult("clear", nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StorageOperations.WithLabelValues("save", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StorageOperations.WithLabelValues("save", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StorageOperations.WithLabelValues("clear", "ok")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("mindmap")
	b := NewCollector("mindmap")
	a.Mutation("node_added")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Mutations.WithLabelValues("node_added")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Mutations.WithLabelValues("node_added")))
}

func TestHandler(t *testing.T) {
	c := NewCollector("mindmap")
	c.Mutation("node_added")
	c.HTTPRequest(http.MethodGet, "/api/graph", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mindmap_graph_mutations_total{kind="node_added"} 1`)
	assert.Contains(t, string(body), `mindmap_http_requests_total{method="GET",route="/api/graph",status="200"} 1`)
}
