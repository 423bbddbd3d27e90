// Package search maintains the policy catalog index. Search degrades to the
// database listing when the cluster is unreachable; indexing failures are
// logged and retried on the next write.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

const policyIndex = "policies"

// PolicyIndex indexes and searches the policy catalog.
type PolicyIndex struct {
	es     *elasticsearch.Client
	logger logger.Logger
}

func NewPolicyIndex(es *elasticsearch.Client, log logger.Logger) *PolicyIndex {
	return &PolicyIndex{es: es, logger: log}
}

// Index writes one policy document, replacing any previous version.
func (p *PolicyIndex) Index(ctx context.Context, policy *models.Policy) error {
	body, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("marshal policy %s: %w", policy.ID, err)
	}

	res, err := p.es.Index(policyIndex, bytes.NewReader(body),
		p.es.Index.WithDocumentID(policy.ID),
		p.es.Index.WithContext(ctx),
	)
	if err != nil {
		return stderrors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewSearchUnavailableError(fmt.Errorf("index policy %s: %s", policy.ID, res.String()))
	}
	return nil
}

// Delete removes a policy document. A missing document is not an error.
func (p *PolicyIndex) Delete(ctx context.Context, id string) error {
	res, err := p.es.Delete(policyIndex, id, p.es.Delete.WithContext(ctx))
	if err != nil {
		return stderrors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return stderrors.NewSearchUnavailableError(fmt.Errorf("delete policy %s: %s", id, res.String()))
	}
	return nil
}

// Query is a catalog search: free text over title and description, an
// optional category filter, and page/size pagination.
type Query struct {
	Text     string
	Category string
	Page     int
	Size     int
}

// Result is one page of matching policies.
type Result struct {
	Policies []models.Policy `json:"policies"`
	Total    int64           `json:"total"`
}

// Search runs the catalog query.
func (p *PolicyIndex) Search(ctx context.Context, q Query) (*Result, error) {
	if q.Size <= 0 || q.Size > 100 {
		q.Size = 9
	}
	if q.Page < 0 {
		q.Page = 0
	}

	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := p.es.Search(
		p.es.Search.WithContext(ctx),
		p.es.Search.WithIndex(policyIndex),
		p.es.Search.WithBody(bytes.NewReader(body)),
		p.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, stderrors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, stderrors.NewSearchUnavailableError(fmt.Errorf("search policies: %s", res.String()))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Policy `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, stderrors.NewSearchUnavailableError(fmt.Errorf("decode search response: %w", err))
	}

	out := &Result{Total: parsed.Hits.Total.Value}
	for _, hit := range parsed.Hits.Hits {
		out.Policies = append(out.Policies, hit.Source)
	}
	return out, nil
}

func buildQuery(q Query) map[string]interface{} {
	var must []interface{}
	if q.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"title^2", "description"},
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": must}
	if q.Category != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"category": q.Category},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"from":  q.Page * q.Size,
		"size":  q.Size,
		"sort": []interface{}{
			map[string]interface{}{"purchaseCount": map[string]interface{}{"order": "desc"}},
		},
	}
}
