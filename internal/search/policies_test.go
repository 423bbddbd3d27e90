package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) (*PolicyIndex, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewPolicyIndex(es, logger.NewNoOpLogger()), srv
}

func TestSearch(t *testing.T) {
	var captured map[string]interface{}
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"id": "pol-1", "title": "Term Life 20", "category": "term"}},
					{"_source": {"id": "pol-2", "title": "Term Life 30", "category": "term"}}
				]
			}
		}`))
	})

	res, err := idx.Search(context.Background(), Query{Text: "term life", Category: "term", Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Policies, 2)
	assert.Equal(t, "pol-1", res.Policies[0].ID)

	// Pagination windows from page*size.
	assert.Equal(t, float64(2), captured["from"])
	assert.Equal(t, float64(2), captured["size"])
}

func TestSearch_ClusterError(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := idx.Search(context.Background(), Query{Text: "term"})
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeSearchUnavailable, stderrors.CodeOf(err))
}

func TestIndexAndDelete(t *testing.T) {
	var method, path string
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": "created"}`))
	})

	policy := &models.Policy{ID: "pol-1", Title: "Term Life 20", Category: "term"}
	require.NoError(t, idx.Index(context.Background(), policy))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/policies/_doc/pol-1", path)

	require.NoError(t, idx.Delete(context.Background(), "pol-1"))
	assert.Equal(t, http.MethodDelete, method)
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery(Query{Text: "health", Category: "health", Page: 0, Size: 9})

	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, boolQuery["must"], 1)
	assert.Len(t, boolQuery["filter"], 1)
	assert.Equal(t, 0, q["from"])

	// No text falls back to match_all.
	q = buildQuery(Query{Size: 9})
	must := q["query"].(map[string]interface{})["bool"].(map[string]interface{})["must"].([]interface{})
	_, ok := must[0].(map[string]interface{})["match_all"]
	assert.True(t, ok)
}
