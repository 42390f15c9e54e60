package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/pkg/fieldmap"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyDeleted = errors.New("already deleted")
	ErrUnavailable    = errors.New("store unavailable")
)

// RegistrantRepository defines the persistence operations on registrants.
// Every read except SoftDelete's own check ignores soft-deleted rows.
type RegistrantRepository interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, a fieldmap.Assignments) (*entity.Registrant, error)
	UpdateByRegNo(ctx context.Context, regNo string, a fieldmap.Assignments) (*entity.Registrant, error)
	GetByID(ctx context.Context, id int64) (*entity.Registrant, error)
	GetByRegNo(ctx context.Context, regNo string) (*entity.Registrant, error)
	ExistsByRegNo(ctx context.Context, regNo string) (bool, error)
	List(ctx context.Context, f entity.ListFilter) ([]*entity.Registrant, int64, error)
	// DistinctValues returns the sorted distinct non-null values per column.
	DistinctValues(ctx context.Context, columns []string) (map[string][]string, error)
	// ListExpiring returns rows whose expiry date lies in [from, to].
	ListExpiring(ctx context.Context, from, to time.Time) ([]*entity.Registrant, error)
	UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error
	SoftDelete(ctx context.Context, regNo, deletedBy string, at time.Time) error
}
