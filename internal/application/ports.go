package application

import (
	"context"
	"io"

	"github.com/oksasatya/member-registry/internal/domain/entity"
)

// Indexer keeps a search index of registrants. Documents are keyed by
// registration number.
type Indexer interface {
	Index(ctx context.Context, r *entity.Registrant) error
	Remove(ctx context.Context, regNo string) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// OptionsCache holds the filter options listing between writes.
type OptionsCache interface {
	Get(ctx context.Context) (map[string][]string, bool, error)
	Set(ctx context.Context, v map[string][]string) error
	Invalidate(ctx context.Context) error
}

// JobPublisher enqueues a JSON job. helpers.RabbitPublisher satisfies it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PhotoStore uploads an object and returns its public URL.
type PhotoStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}
