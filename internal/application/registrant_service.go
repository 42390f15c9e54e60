package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/domain/membership"
	repo "github.com/oksasatya/member-registry/internal/domain/repository"
	"github.com/oksasatya/member-registry/internal/metrics"
	"github.com/oksasatya/member-registry/pkg/fieldmap"
	mailtpl "github.com/oksasatya/member-registry/pkg/mailer/templates"
)

const (
	DefaultPageSize       = 20
	MaxPageSize           = 100
	DefaultRenewalHorizon = 10
	maxSearchSize         = 50
)

// RegistrantService implements every registrant operation on top of the
// repository. Optional collaborators left nil are skipped.
type RegistrantService struct {
	repo       repo.RegistrantRepository
	calc       *membership.Calculator
	reconciler *StatusReconciler
	logger     logrus.FieldLogger

	Options OptionsCache
	Index   Indexer
	Jobs    JobPublisher
	Photos  PhotoStore
	Brand   mailtpl.Brand

	// StrictDates rejects a supplied regDate that cannot be parsed instead of
	// replacing it with today.
	StrictDates    bool
	RenewalHorizon int
}

func NewRegistrantService(r repo.RegistrantRepository, calc *membership.Calculator, logger logrus.FieldLogger) *RegistrantService {
	logger = orDiscard(logger)
	return &RegistrantService{
		repo:           r,
		calc:           calc,
		reconciler:     NewStatusReconciler(r, calc, logger),
		logger:         logger,
		RenewalHorizon: DefaultRenewalHorizon,
	}
}

func (s *RegistrantService) Calculator() *membership.Calculator { return s.calc }

// Ping reports whether the store answers.
func (s *RegistrantService) Ping(ctx context.Context) error {
	return translate(s.repo.Ping(ctx))
}

// Create inserts a registrant from a caller payload. Plan fields are always
// computed here; system fields are forced.
func (s *RegistrantService) Create(ctx context.Context, input map[string]any, actor string) (*entity.Registrant, error) {
	payload := entity.CreatePayload.Pick(input)
	if v, ok := payload[entity.KeyRegNo]; ok && isBlank(v) {
		// Let the store assign one.
		delete(payload, entity.KeyRegNo)
	}
	if len(payload) == 0 {
		return nil, ErrNoFields
	}

	rawDate, dateSet := payload[entity.KeyRegDate]
	if err := s.checkDate(rawDate, dateSet); err != nil {
		return nil, err
	}
	exp := s.calc.Expiry(rawDate, asString(payload[entity.KeyPlan]))
	s.applyExpiry(payload, exp)

	now := s.calc.Dates().Now()
	payload[entity.KeyIsDeleted] = false
	payload[entity.KeyCreatedAt] = now
	payload[entity.KeyUpdatedAt] = now
	payload[entity.KeyCreatedBy] = actor
	payload[entity.KeyModifiedBy] = actor

	a, err := entity.CreateColumns.Map(payload)
	if err != nil {
		return nil, translate(err)
	}
	rec, err := s.repo.Create(ctx, a)
	if err != nil {
		metrics.RegistrantWrite("create", "error")
		return nil, translate(err)
	}
	metrics.RegistrantWrite("create", "ok")

	s.afterWrite(ctx, rec)
	s.queueConfirmation(ctx, rec)
	return rec, nil
}

// Update applies a partial payload to the registrant with regNo. When plan or
// regDate is present the plan fields are recomputed, taking the other input
// from the stored record.
func (s *RegistrantService) Update(ctx context.Context, regNo string, input map[string]any, actor string) (*entity.Registrant, error) {
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return nil, ErrInvalidID
	}
	payload := entity.UpdatePayload.Pick(input)
	if len(payload) == 0 {
		return nil, ErrNoFields
	}

	rawPlan, planSet := payload[entity.KeyPlan]
	rawDate, dateSet := payload[entity.KeyRegDate]
	if planSet || dateSet {
		if err := s.checkDate(rawDate, dateSet); err != nil {
			return nil, err
		}
		cur, err := s.repo.GetByRegNo(ctx, regNo)
		if err != nil {
			return nil, translate(err)
		}
		regDate, plan := dateArg(cur.RegDate), cur.Plan
		if dateSet {
			regDate = rawDate
		}
		if planSet {
			plan = asString(rawPlan)
		}
		s.applyExpiry(payload, s.calc.Expiry(regDate, plan))
	}

	payload[entity.KeyUpdatedAt] = s.calc.Dates().Now()
	payload[entity.KeyModifiedBy] = actor

	a, err := entity.UpdateColumns.Map(payload)
	if err != nil {
		return nil, translate(err)
	}
	rec, err := s.repo.UpdateByRegNo(ctx, regNo, a)
	if err != nil {
		metrics.RegistrantWrite("update", "error")
		return nil, translate(err)
	}
	metrics.RegistrantWrite("update", "ok")

	s.reconciler.Reconcile(ctx, rec)
	s.afterWrite(ctx, rec)
	return rec, nil
}

type ListQuery struct {
	Q       string
	Status  string
	Page    int
	Limit   int
	Filters map[string]any
}

type ListResult struct {
	Items      []*entity.Registrant
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// List returns one page of non-deleted registrants, most recent first, with
// each status reconciled.
func (s *RegistrantService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	status := strings.ToLower(strings.TrimSpace(q.Status))
	switch membership.Status(status) {
	case "", membership.StatusActive, membership.StatusExpired:
	default:
		return nil, invalid("status must be %q or %q", membership.StatusActive, membership.StatusExpired)
	}

	filters := make(map[string]any, len(q.Filters))
	for k, v := range q.Filters {
		if !isBlank(v) {
			filters[k] = v
		}
	}
	equals, err := entity.ListFilters.Map(filters)
	if err != nil && !errors.Is(err, fieldmap.ErrEmpty) {
		return nil, translate(err)
	}

	items, total, err := s.repo.List(ctx, entity.ListFilter{
		Query:  strings.TrimSpace(q.Q),
		Equals: equals,
		Status: status,
		Today:  s.calc.Dates().Today(),
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
	})
	if err != nil {
		return nil, translate(err)
	}
	s.reconciler.ReconcileAll(ctx, items)

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	}, nil
}

// FilterOptions lists the distinct non-empty values of every option field,
// keyed by external key.
func (s *RegistrantService) FilterOptions(ctx context.Context) (map[string][]string, error) {
	if s.Options != nil {
		v, ok, err := s.Options.Get(ctx)
		switch {
		case err != nil:
			metrics.FilterCache("error")
			s.logger.WithError(err).Warn("filter options cache read failed")
		case ok:
			metrics.FilterCache("hit")
			return v, nil
		default:
			metrics.FilterCache("miss")
		}
	}

	raw, err := s.repo.DistinctValues(ctx, entity.OptionFields.Columns())
	if err != nil {
		return nil, translate(err)
	}
	out := make(map[string][]string, len(raw))
	for _, col := range entity.OptionFields.Columns() {
		key, _ := entity.OptionFields.Key(col)
		vals := raw[col]
		if vals == nil {
			vals = []string{}
		}
		out[key] = vals
	}

	if s.Options != nil {
		if err := s.Options.Set(ctx, out); err != nil {
			s.logger.WithError(err).Warn("filter options cache write failed")
		}
	}
	return out, nil
}

// Exists reports whether a non-deleted registrant holds regNo.
func (s *RegistrantService) Exists(ctx context.Context, regNo string) (bool, error) {
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return false, ErrInvalidID
	}
	ok, err := s.repo.ExistsByRegNo(ctx, regNo)
	if err != nil {
		return false, translate(err)
	}
	return ok, nil
}

func (s *RegistrantService) GetByID(ctx context.Context, id int64) (*entity.Registrant, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	s.reconciler.Reconcile(ctx, rec)
	return rec, nil
}

// SoftDelete flags the registrant as deleted. deletedBy falls back to actor.
func (s *RegistrantService) SoftDelete(ctx context.Context, regNo, deletedBy, actor string) error {
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return ErrInvalidID
	}
	by := strings.TrimSpace(deletedBy)
	if by == "" {
		by = actor
	}
	if err := s.repo.SoftDelete(ctx, regNo, by, s.calc.Dates().Now()); err != nil {
		metrics.RegistrantWrite("delete", "error")
		return translate(err)
	}
	metrics.RegistrantWrite("delete", "ok")

	s.invalidateOptions(ctx)
	if s.Index != nil {
		if err := s.Index.Remove(ctx, regNo); err != nil {
			s.logger.WithError(err).WithField("reg_no", regNo).Warn("search index remove failed")
		}
	}
	return nil
}

// Search runs a free-text query against the search index.
func (s *RegistrantService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q is required")
	}
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > maxSearchSize {
		size = 10
	}
	hits, err := s.Index.Search(ctx, q, size)
	if err != nil {
		s.logger.WithError(err).Warn("search failed")
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}
	return hits, nil
}

// UploadPhoto stores an image for the registrant and records its URL.
func (s *RegistrantService) UploadPhoto(ctx context.Context, regNo string, r io.Reader, filename, contentType, actor string) (*entity.Registrant, error) {
	if s.Photos == nil {
		return nil, fmt.Errorf("%w: photo storage not configured", ErrUnavailable)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, invalid("photo must be an image, got %q", contentType)
	}
	ok, err := s.Exists(ctx, regNo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	ext := strings.ToLower(filepath.Ext(filename))
	object := path.Join("registrants", url.PathEscape(strings.TrimSpace(regNo)), uuid.NewString()+ext)
	photoURL, err := s.Photos.Upload(ctx, object, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	return s.Update(ctx, regNo, map[string]any{entity.KeyPhotoURL: photoURL}, actor)
}

// checkDate enforces strict parsing of a supplied regDate.
func (s *RegistrantService) checkDate(v any, present bool) error {
	if !s.StrictDates || !present {
		return nil
	}
	if _, err := s.calc.Dates().Parse(v); err != nil {
		return invalid("regDate: %v", err)
	}
	return nil
}

func (s *RegistrantService) applyExpiry(payload map[string]any, exp membership.Expiry) {
	payload[entity.KeyRegDate] = exp.RegDate
	payload[entity.KeyPlan] = string(exp.Plan)
	payload[entity.KeyAmount] = exp.Amount
	payload[entity.KeyValidDays] = exp.ValidDays
	payload[entity.KeyExpiryDate] = exp.ExpiryDate
	payload[entity.KeyStatus] = string(s.calc.Status(exp.ExpiryDate))
}

func (s *RegistrantService) afterWrite(ctx context.Context, rec *entity.Registrant) {
	s.invalidateOptions(ctx)
	if s.Index != nil {
		if err := s.Index.Index(ctx, rec); err != nil {
			s.logger.WithError(err).WithField("reg_no", rec.RegNo).Warn("search index failed")
		}
	}
}

func (s *RegistrantService) invalidateOptions(ctx context.Context) {
	if s.Options == nil {
		return
	}
	if err := s.Options.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("filter options cache invalidate failed")
	}
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func orDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if lg, ok := l.(*logrus.Logger); l == nil || (ok && lg == nil) {
		d := logrus.New()
		d.SetOutput(io.Discard)
		return d
	}
	return l
}
