package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/testutil/memstore"
	"github.com/oksasatya/member-registry/pkg/mailer"
	mailtpl "github.com/oksasatya/member-registry/pkg/mailer/templates"
)

func newService() (*RegistrantService, *memstore.Registrants) {
	r := memstore.New(ist)
	return NewRegistrantService(r, newCalc(), nil), r
}

func TestCreate_ComputesPlanFields(t *testing.T) {
	svc, _ := newService()

	rec, err := svc.Create(context.Background(), map[string]any{
		"plan":    "Gold",
		"regDate": "2024-01-01",
		"name":    "Asha",
	}, "clerk")
	require.NoError(t, err)

	assert.Equal(t, "gold", rec.Plan)
	assert.Equal(t, 2950, rec.Amount)
	assert.Equal(t, 180, rec.ValidDays)
	require.NotNil(t, rec.ExpiryDate)
	assert.Equal(t, day(2024, 6, 29), *rec.ExpiryDate)
	assert.Equal(t, "active", rec.Status)
	assert.Equal(t, "clerk", rec.CreatedBy)
	assert.Equal(t, "clerk", rec.ModifiedBy)
	assert.False(t, rec.IsDeleted)
	assert.Equal(t, "REG000001", rec.RegNo)
}

func TestCreate_IgnoresSystemFields(t *testing.T) {
	svc, _ := newService()

	rec, err := svc.Create(context.Background(), map[string]any{
		"plan":       "silver",
		"regDate":    "2024-02-01",
		"amount":     1,
		"validDays":  9999,
		"expiryDate": "2099-01-01",
		"status":     "expired",
		"isDeleted":  true,
		"createdBy":  "intruder",
		"id":         42,
	}, "clerk")
	require.NoError(t, err)

	assert.Equal(t, 1770, rec.Amount)
	assert.Equal(t, 120, rec.ValidDays)
	assert.Equal(t, day(2024, 5, 31), *rec.ExpiryDate)
	assert.Equal(t, "active", rec.Status)
	assert.False(t, rec.IsDeleted)
	assert.Equal(t, "clerk", rec.CreatedBy)
	assert.Equal(t, int64(1), rec.ID)
}

func TestCreate_UnknownPlanFallsBackToEntry(t *testing.T) {
	svc, _ := newService()
	for _, plan := range []any{"diamond", nil, ""} {
		rec, err := svc.Create(context.Background(), map[string]any{"plan": plan, "regDate": "2024-01-01"}, "api")
		require.NoError(t, err)
		assert.Equal(t, "entry", rec.Plan)
		assert.Equal(t, 1180, rec.Amount)
		assert.Equal(t, 90, rec.ValidDays)
		assert.Equal(t, day(2024, 3, 31), *rec.ExpiryDate)
	}
}

func TestCreate_ExpiredRegistration(t *testing.T) {
	svc, _ := newService()
	rec, err := svc.Create(context.Background(), map[string]any{"plan": "entry", "regDate": "1-Nov-23"}, "api")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 30), *rec.ExpiryDate)
	assert.Equal(t, "expired", rec.Status)
}

func TestCreate_NoRecognizedFields(t *testing.T) {
	svc, _ := newService()
	for _, in := range []map[string]any{nil, {}, {"amount": 5, "isDeleted": true}, {"regNo": "  "}} {
		_, err := svc.Create(context.Background(), in, "api")
		assert.ErrorIs(t, err, ErrNoFields)
	}
}

func TestCreate_DuplicateRegNo(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Create(context.Background(), map[string]any{"regNo": "R-1"}, "api")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), map[string]any{"regNo": "R-1"}, "api")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreate_DateModes(t *testing.T) {
	svc, _ := newService()

	rec, err := svc.Create(context.Background(), map[string]any{"regDate": "not a date"}, "api")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 1), *rec.RegDate)

	svc.StrictDates = true
	_, err = svc.Create(context.Background(), map[string]any{"regDate": "not a date"}, "api")
	assert.ErrorIs(t, err, ErrValidation)

	rec, err = svc.Create(context.Background(), map[string]any{"name": "no date"}, "api")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 1), *rec.RegDate)
}

func TestCreate_RejectsStructuredAttribute(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Create(context.Background(), map[string]any{"name": map[string]any{"first": "A"}}, "api")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdate_PlanOnlyUsesStoredRegDate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, map[string]any{"regNo": "R-7", "plan": "gold", "regDate": "2024-01-01"}, "api")
	require.NoError(t, err)

	rec, err := svc.Update(ctx, "R-7", map[string]any{"plan": "silver"}, "editor")
	require.NoError(t, err)
	assert.Equal(t, "silver", rec.Plan)
	assert.Equal(t, 1770, rec.Amount)
	assert.Equal(t, day(2024, 1, 1), *rec.RegDate)
	assert.Equal(t, day(2024, 4, 30), *rec.ExpiryDate)
	assert.Equal(t, "editor", rec.ModifiedBy)
	assert.Equal(t, "api", rec.CreatedBy)
}

func TestUpdate_RegDateOnlyKeepsStoredPlan(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, map[string]any{"regNo": "R-8", "plan": "platinum", "regDate": "2023-01-01"}, "api")
	require.NoError(t, err)

	rec, err := svc.Update(ctx, "R-8", map[string]any{"regDate": "15/3/2023"}, "editor")
	require.NoError(t, err)
	assert.Equal(t, "platinum", rec.Plan)
	assert.Equal(t, day(2023, 3, 15), *rec.RegDate)
	assert.Equal(t, day(2024, 3, 14), *rec.ExpiryDate)
	assert.Equal(t, "active", rec.Status)
}

func TestUpdate_AttributeOnlyLeavesPlanFields(t *testing.T) {
	svc, r := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, map[string]any{"regNo": "R-9", "plan": "gold", "regDate": "2024-01-01"}, "api")
	require.NoError(t, err)

	rec, err := svc.Update(ctx, "R-9", map[string]any{"city": "Pune", "regNo": "HIJACK", "amount": 1}, "editor")
	require.NoError(t, err)
	assert.Equal(t, "R-9", rec.RegNo)
	assert.Equal(t, 2950, rec.Amount)
	assert.Equal(t, "Pune", rec.Attr("city"))
	assert.Empty(t, r.StatusWrites)
}

func TestUpdate_Errors(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Update(ctx, "missing", map[string]any{"city": "Pune"}, "api")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "missing", map[string]any{"plan": "gold"}, "api")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "R-1", map[string]any{"bogus": 1}, "api")
	assert.ErrorIs(t, err, ErrNoFields)

	_, err = svc.Update(ctx, " ", map[string]any{"city": "Pune"}, "api")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGetByID_ReconcilesStaleStatus(t *testing.T) {
	svc, r := newService()
	id := r.Put(map[string]any{
		entity.ColPlan:       "entry",
		entity.ColExpiryDate: day(2024, 2, 29),
		entity.ColStatus:     "active",
	})

	rec, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "expired", rec.Status)
	assert.Equal(t, []memstore.StatusWrite{{ID: id, Status: "expired"}}, r.StatusWrites)
	assert.Equal(t, "expired", r.Rows[id][entity.ColStatus])
}

func TestGetByID_WriteBackFailureIsSwallowed(t *testing.T) {
	svc, r := newService()
	r.StatusErr = errors.New("connection reset")
	id := r.Put(map[string]any{entity.ColExpiryDate: day(2024, 2, 1), entity.ColStatus: "active"})

	rec, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "expired", rec.Status)
	assert.Len(t, r.StatusWrites, 1)
}

func TestGetByID_MatchingStatusIsNotRewritten(t *testing.T) {
	svc, r := newService()
	id := r.Put(map[string]any{entity.ColExpiryDate: day(2024, 3, 1), entity.ColStatus: "ACTIVE"})

	rec, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "active", rec.Status)
	assert.Empty(t, r.StatusWrites)
}

func TestGetByID_Errors(t *testing.T) {
	svc, _ := newService()
	_, err := svc.GetByID(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = svc.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_PagingAndReconcile(t *testing.T) {
	svc, r := newService()
	for i := 0; i < 5; i++ {
		r.Put(map[string]any{entity.ColExpiryDate: day(2024, 1, 1), entity.ColStatus: "active"})
	}

	res, err := svc.List(context.Background(), ListQuery{
		Page:    2,
		Limit:   2,
		Q:       "  asha ",
		Status:  "Expired",
		Filters: map[string]any{"city": "Pune", "gender": "", "isDeleted": "true"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.Page)
	require.Len(t, res.Items, 2)
	for _, it := range res.Items {
		assert.Equal(t, "expired", it.Status)
	}
	assert.Len(t, r.StatusWrites, 2)

	f := r.LastFilter
	assert.Equal(t, "asha", f.Query)
	assert.Equal(t, "expired", f.Status)
	assert.Equal(t, 2, f.Offset)
	assert.Equal(t, day(2024, 3, 1), f.Today)
	assert.Equal(t, []string{"city"}, f.Equals.Columns)
}

func TestList_Defaults(t *testing.T) {
	svc, r := newService()
	res, err := svc.List(context.Background(), ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, MaxPageSize, res.Limit)
	assert.Equal(t, 0, res.TotalPages)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, r.LastFilter.Equals.Len())

	_, err = svc.List(context.Background(), ListQuery{Status: "lapsed"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFilterOptions_CachedUntilWrite(t *testing.T) {
	svc, r := newService()
	cache := &memCache{}
	svc.Options = cache
	ctx := context.Background()
	r.Put(map[string]any{"city": "Pune", "religion": "Hindu"})

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pune"}, opts["city"])
	assert.Equal(t, []string{}, opts["caste"])
	assert.Contains(t, opts, "maritalStatus")

	_, err = svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r.DistinctHits)

	_, err = svc.Create(ctx, map[string]any{"city": "Delhi"}, "api")
	require.NoError(t, err)
	opts, err = svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.DistinctHits)
	assert.Equal(t, []string{"Delhi", "Pune"}, opts["city"])
}

func TestExistsAndSoftDelete(t *testing.T) {
	svc, _ := newService()
	idx := &memIndex{}
	svc.Index = idx
	ctx := context.Background()

	rec, err := svc.Create(ctx, map[string]any{"regNo": "R-5"}, "api")
	require.NoError(t, err)
	assert.Contains(t, idx.docs, "R-5")

	ok, err := svc.Exists(ctx, "R-5")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.SoftDelete(ctx, "R-5", "", "admin"))
	assert.NotContains(t, idx.docs, "R-5")

	ok, err = svc.Exists(ctx, "R-5")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.GetByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, "R-5", map[string]any{"city": "Pune"}, "api")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.SoftDelete(ctx, "R-5", "x", "admin"), ErrAlreadyDeleted)
	assert.ErrorIs(t, svc.SoftDelete(ctx, "R-404", "x", "admin"), ErrNotFound)
	assert.ErrorIs(t, svc.SoftDelete(ctx, "", "x", "admin"), ErrInvalidID)
}

func TestSoftDelete_DeletedByFallsBackToActor(t *testing.T) {
	svc, r := newService()
	ctx := context.Background()
	rec, err := svc.Create(ctx, map[string]any{"regNo": "R-6"}, "api")
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, "R-6", "  ", "admin"))
	assert.Equal(t, "admin", r.Rows[rec.ID][entity.ColDeletedBy])
}

func TestCreate_QueuesConfirmation(t *testing.T) {
	svc, _ := newService()
	jobs := &memJobs{}
	svc.Jobs = jobs
	svc.Brand = mailtpl.Brand{AppName: "Vivah"}
	ctx := context.Background()

	_, err := svc.Create(ctx, map[string]any{"name": "Asha", "email": "asha@example.com", "plan": "gold", "regDate": "2024-01-01"}, "api")
	require.NoError(t, err)
	require.Len(t, jobs.jobs, 1)
	job := jobs.jobs[0].(mailer.EmailJob)
	assert.Equal(t, "asha@example.com", job.To)
	assert.Equal(t, mailtpl.RegistrationConfirmation, job.Template)
	assert.Equal(t, "29 June 2024", job.Data["ExpiryDateText"])

	_, err = svc.Create(ctx, map[string]any{"name": "No Mail"}, "api")
	require.NoError(t, err)
	assert.Len(t, jobs.jobs, 1)

	jobs.err = errors.New("channel closed")
	_, err = svc.Create(ctx, map[string]any{"email": "b@example.com"}, "api")
	assert.NoError(t, err)
}

func TestSearch(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Search(context.Background(), " ", 10)
	assert.ErrorIs(t, err, ErrValidation)

	hits, err := svc.Search(context.Background(), "asha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	svc.Index = &memIndex{}
	_, err = svc.Search(context.Background(), "asha", 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUploadPhoto(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.UploadPhoto(ctx, "R-1", strings.NewReader("x"), "a.jpg", "image/jpeg", "api")
	assert.ErrorIs(t, err, ErrUnavailable)

	photos := &memPhotos{}
	svc.Photos = photos
	_, err = svc.Create(ctx, map[string]any{"regNo": "R-1"}, "api")
	require.NoError(t, err)

	_, err = svc.UploadPhoto(ctx, "R-1", strings.NewReader("x"), "a.pdf", "application/pdf", "api")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UploadPhoto(ctx, "R-2", strings.NewReader("x"), "a.jpg", "image/jpeg", "api")
	assert.ErrorIs(t, err, ErrNotFound)

	rec, err := svc.UploadPhoto(ctx, "R-1", strings.NewReader("x"), "Face.JPG", "image/jpeg", "api")
	require.NoError(t, err)
	require.Len(t, photos.paths, 1)
	assert.True(t, strings.HasPrefix(photos.paths[0], "registrants/R-1/"))
	assert.True(t, strings.HasSuffix(photos.paths[0], ".jpg"))
	assert.Equal(t, "https://storage.example.com/bucket/"+photos.paths[0], rec.Attr(entity.KeyPhotoURL))
}
