package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/pkg/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeElastic servidor mínimo que imita las respuestas de Elasticsearch.
type fakeElastic struct {
	mu          sync.Mutex
	requests    []recordedRequest
	indexExists bool
}

func (f *fakeElastic) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
	case r.Method == http.MethodHead && r.URL.Path == "/products":
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/products":
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case r.Method == http.MethodPut && r.URL.Path == "/products/_doc/p-1":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case r.Method == http.MethodDelete && r.URL.Path == "/products/_doc/missing":
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	case r.Method == http.MethodDelete:
		_, _ = io.WriteString(w, `{"result":"deleted"}`)
	case r.URL.Path == "/products/_search":
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":7},"hits":[{"_id":"p-2"},{"_id":"p-1"}]}}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"unexpected"}`)
	}
}

func (f *fakeElastic) find(method, path string) (recordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return recordedRequest{}, false
}

func newTestIndexer(t *testing.T) (*ElasticIndexer, *fakeElastic) {
	t.Helper()
	fake := &fakeElastic{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	client, err := NewElasticClient(config.ElasticConfig{URL: srv.URL, Index: "products"})
	require.NoError(t, err)
	return NewElasticIndexer(client, "products"), fake
}

func TestEnsureIndex_CreaSiNoExiste(t *testing.T) {
	idx, fake := newTestIndexer(t)

	require.NoError(t, idx.EnsureIndex(context.Background()))
	req, ok := fake.find(http.MethodPut, "/products")
	require.True(t, ok, "debe crear el índice")
	assert.Contains(t, req.Body, `"mappings"`)
}

func TestEnsureIndex_NoRecreaExistente(t *testing.T) {
	idx, fake := newTestIndexer(t)
	fake.indexExists = true

	require.NoError(t, idx.EnsureIndex(context.Background()))
	_, ok := fake.find(http.MethodPut, "/products")
	assert.False(t, ok)
}

func TestIndex_EnviaDocumento(t *testing.T) {
	idx, fake := newTestIndexer(t)

	err := idx.Index(context.Background(), &entity.Product{
		ID: "p-1", Name: "Ibuprofeno 400mg", Category: "Analgésicos",
		Price: decimal.RequireFromString("3.5"), Stock: 12,
	})
	require.NoError(t, err)

	req, ok := fake.find(http.MethodPut, "/products/_doc/p-1")
	require.True(t, ok)
	var doc productDoc
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Ibuprofeno 400mg", doc.Name)
	assert.Equal(t, "3.50", doc.Price)
	assert.Equal(t, 12, doc.Stock)
}

func TestRemove_NoExistenteNoEsError(t *testing.T) {
	idx, _ := newTestIndexer(t)
	assert.NoError(t, idx.Remove(context.Background(), "missing"))
	assert.NoError(t, idx.Remove(context.Background(), "p-1"))
}

func TestSearch_DevuelveIDsEnOrden(t *testing.T) {
	idx, fake := newTestIndexer(t)

	ids, total, err := idx.Search(context.Background(), "ibuprofeno", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-2", "p-1"}, ids)
	assert.Equal(t, 7, total)

	req, ok := fake.find(http.MethodPost, "/products/_search")
	if !ok {
		req, ok = fake.find(http.MethodGet, "/products/_search")
	}
	require.True(t, ok)
	assert.Contains(t, req.Body, `"multi_match"`)
	assert.Contains(t, req.Body, `"name^2"`)
	assert.Contains(t, req.Body, `"fuzziness":"AUTO"`)
}

func TestNoopIndexer(t *testing.T) {
	var idx NoopIndexer
	assert.False(t, idx.Enabled())
	ids, total, err := idx.Search(context.Background(), "x", 0, 10)
	assert.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, total)
}
