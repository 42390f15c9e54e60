//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/domain/repository"
	"github.com/oksasatya/member-registry/internal/testutil/containers"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, ist) }

func setup(t *testing.T) (*RegistrantRepository, *containers.PostgresContainer) {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, RunMigrations(pg.DSN, "../../../db/migrations", nil))
	return NewRegistrantRepository(pg.Pool, ist), pg
}

func insert(t *testing.T, repo *RegistrantRepository, in map[string]any) *entity.Registrant {
	t.Helper()
	now := time.Now()
	base := map[string]any{
		entity.KeyPlan:       "gold",
		entity.KeyRegDate:    day(2024, 1, 1),
		entity.KeyAmount:     2950,
		entity.KeyValidDays:  180,
		entity.KeyExpiryDate: day(2024, 6, 29),
		entity.KeyStatus:     "active",
		entity.KeyIsDeleted:  false,
		entity.KeyCreatedAt:  now,
		entity.KeyUpdatedAt:  now,
		entity.KeyCreatedBy:  "test",
		entity.KeyModifiedBy: "test",
	}
	for k, v := range in {
		base[k] = v
	}
	a, err := entity.CreateColumns.Map(base)
	require.NoError(t, err)
	rec, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	return rec
}

func TestRegistrantRepository_CreateAndRead(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()

	rec := insert(t, repo, map[string]any{"name": "Asha", "city": "Pune"})
	assert.Equal(t, "REG000001", rec.RegNo)
	require.NotNil(t, rec.ExpiryDate)
	assert.Equal(t, day(2024, 6, 29), *rec.ExpiryDate)
	assert.Equal(t, "Asha", rec.Attr("name"))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.RegNo, got.RegNo)

	ok, err := repo.ExistsByRegNo(ctx, rec.RegNo)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, rec.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegistrantRepository_DuplicateRegNo(t *testing.T) {
	repo, _ := setup(t)

	insert(t, repo, map[string]any{entity.KeyRegNo: "R-1"})

	a, err := entity.CreateColumns.Map(map[string]any{entity.KeyRegNo: "R-1", entity.KeyPlan: "entry"})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), a)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestRegistrantRepository_UpdateAndSoftDelete(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	rec := insert(t, repo, map[string]any{entity.KeyRegNo: "R-2", "city": "Pune"})

	a, err := entity.UpdateColumns.Map(map[string]any{"city": "Nagpur", entity.KeyModifiedBy: "editor"})
	require.NoError(t, err)
	upd, err := repo.UpdateByRegNo(ctx, "R-2", a)
	require.NoError(t, err)
	assert.Equal(t, "Nagpur", upd.Attr("city"))
	assert.Equal(t, "editor", upd.ModifiedBy)

	require.NoError(t, repo.SoftDelete(ctx, "R-2", "admin", time.Now()))
	assert.ErrorIs(t, repo.SoftDelete(ctx, "R-2", "admin", time.Now()), repository.ErrAlreadyDeleted)
	assert.ErrorIs(t, repo.SoftDelete(ctx, "R-404", "admin", time.Now()), repository.ErrNotFound)

	_, err = repo.GetByID(ctx, rec.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.UpdateByRegNo(ctx, "R-2", a)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	ok, err := repo.ExistsByRegNo(ctx, "R-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistrantRepository_ListFiltersAndCounts(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	today := day(2024, 5, 1)

	insert(t, repo, map[string]any{"name": "Asha", "city": "Pune"})
	insert(t, repo, map[string]any{"name": "Ravi", "city": "pune", entity.KeyPlan: "silver", entity.KeyExpiryDate: day(2024, 4, 1)})
	insert(t, repo, map[string]any{"name": "Meena_x", "city": "Delhi"})
	del := insert(t, repo, map[string]any{"name": "Gone", "city": "Pune"})
	require.NoError(t, repo.SoftDelete(ctx, del.RegNo, "admin", time.Now()))

	eq, err := entity.ListFilters.Map(map[string]any{"city": "PUNE"})
	require.NoError(t, err)
	items, total, err := repo.List(ctx, entity.ListFilter{Equals: eq, Today: today, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)
	assert.Equal(t, "Ravi", items[0].Attr("name"))

	_, total, err = repo.List(ctx, entity.ListFilter{Status: "expired", Today: today, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	items, total, err = repo.List(ctx, entity.ListFilter{Query: "_x", Today: today, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Meena_x", items[0].Attr("name"))

	items, total, err = repo.List(ctx, entity.ListFilter{Today: today, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 1)
}

func TestRegistrantRepository_DistinctAndExpiring(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()

	a := insert(t, repo, map[string]any{"city": "Pune", entity.KeyExpiryDate: day(2024, 5, 3)})
	insert(t, repo, map[string]any{"city": "Delhi", entity.KeyExpiryDate: day(2024, 7, 1)})
	insert(t, repo, map[string]any{"city": ""})

	vals, err := repo.DistinctValues(ctx, []string{"city", "plan"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi", "Pune"}, vals["city"])
	assert.Equal(t, []string{"gold"}, vals["plan"])

	due, err := repo.ListExpiring(ctx, day(2024, 5, 1), day(2024, 5, 31))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, a.ID, due[0].ID)

	require.NoError(t, repo.UpdateStatus(ctx, a.ID, "expired", time.Now()))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "expired", got.Status)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 9999, "expired", time.Now()), repository.ErrNotFound)
}
