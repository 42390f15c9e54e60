package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/member-registry/internal/domain/entity"
)

// searchFields are matched by Search; identifiers and contact details rank
// above the rest.
var searchFields = []string{"regNo^3", "name^2", "phone^2", "email^2", "city", "occupation", "education", "caste"}

// RegistrantIndex keeps registrant documents in Elasticsearch, one document
// per registration number.
type RegistrantIndex struct {
	es      *elasticsearch.Client
	index   string
	timeout time.Duration
}

func NewRegistrantIndex(es *elasticsearch.Client, index string) *RegistrantIndex {
	return &RegistrantIndex{es: es, index: index, timeout: 3 * time.Second}
}

// Index upserts the registrant document.
func (x *RegistrantIndex) Index(ctx context.Context, r *entity.Registrant) error {
	doc := r.ToMap()
	doc[entity.KeyCreatedAt] = r.CreatedAt.Format(time.RFC3339Nano)
	doc[entity.KeyUpdatedAt] = r.UpdatedAt.Format(time.RFC3339Nano)
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	req := esapi.IndexRequest{Index: x.index, DocumentID: r.RegNo, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", r.RegNo, res.Status())
	}
	return nil
}

// Remove deletes the document. A missing document is not an error.
func (x *RegistrantIndex) Remove(ctx context.Context, regNo string) error {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	req := esapi.DeleteRequest{Index: x.index, DocumentID: regNo}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete %s: %s", regNo, res.Status())
	}
	return nil
}

// Search runs a multi_match query and returns the matching sources.
func (x *RegistrantIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    searchFields,
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}
	return decodeHits(res)
}

func decodeHits(res *esapi.Response) ([]map[string]any, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if h.Source == nil {
			h.Source = map[string]any{}
		}
		if _, ok := h.Source[entity.KeyRegNo]; !ok {
			h.Source[entity.KeyRegNo] = h.ID
		}
		out = append(out, h.Source)
	}
	return out, nil
}
