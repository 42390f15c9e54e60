package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	repo "github.com/oksasatya/member-registry/internal/domain/repository"
	"github.com/oksasatya/member-registry/pkg/fieldmap"
)

// StatusWrite records one UpdateStatus call.
type StatusWrite struct {
	ID     int64
	Status string
}

// Registrants is an in-memory RegistrantRepository keyed by id. Rows are
// kept column-keyed and decoded with entity.FromRow like the real store.
type Registrants struct {
	mu     sync.Mutex
	loc    *time.Location
	nextID int64

	Rows map[int64]map[string]any

	// PingErr and StatusErr are returned by Ping and UpdateStatus.
	PingErr      error
	StatusErr    error
	StatusWrites []StatusWrite
	LastFilter   entity.ListFilter
	DistinctHits int
}

func New(loc *time.Location) *Registrants {
	return &Registrants{loc: loc, Rows: map[int64]map[string]any{}}
}

func (m *Registrants) Ping(context.Context) error { return m.PingErr }

// Put stores a raw row and returns its id. reg_no and is_deleted get
// defaults when absent.
func (m *Registrants) Put(row map[string]any) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	row[entity.ColID] = m.nextID
	if _, ok := row[entity.ColRegNo]; !ok {
		row[entity.ColRegNo] = fmt.Sprintf("REG%06d", m.nextID)
	}
	if _, ok := row[entity.ColIsDeleted]; !ok {
		row[entity.ColIsDeleted] = false
	}
	m.Rows[m.nextID] = row
	return m.nextID
}

func (m *Registrants) decode(row map[string]any) *entity.Registrant {
	rec, err := entity.FromRow(row, m.loc)
	if err != nil {
		panic(err)
	}
	return rec
}

func (m *Registrants) live(regNo string) (map[string]any, bool) {
	for _, r := range m.Rows {
		if r[entity.ColRegNo] == regNo && r[entity.ColIsDeleted] == false {
			return r, true
		}
	}
	return nil, false
}

func (m *Registrants) Create(_ context.Context, a fieldmap.Assignments) (*entity.Registrant, error) {
	row := map[string]any{}
	for i, c := range a.Columns {
		row[c] = a.Values[i]
	}
	m.mu.Lock()
	for _, r := range m.Rows {
		if regNo, ok := row[entity.ColRegNo]; ok && r[entity.ColRegNo] == regNo {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: registrants_reg_no_key", repo.ErrConflict)
		}
	}
	m.mu.Unlock()
	id := m.put(row)
	return m.decode(m.Rows[id]), nil
}

func (m *Registrants) UpdateByRegNo(_ context.Context, regNo string, a fieldmap.Assignments) (*entity.Registrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.live(regNo)
	if !ok {
		return nil, repo.ErrNotFound
	}
	for i, c := range a.Columns {
		row[c] = a.Values[i]
	}
	return m.decode(row), nil
}

func (m *Registrants) GetByID(_ context.Context, id int64) (*entity.Registrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.Rows[id]
	if !ok || row[entity.ColIsDeleted] == true {
		return nil, repo.ErrNotFound
	}
	return m.decode(row), nil
}

func (m *Registrants) GetByRegNo(_ context.Context, regNo string) (*entity.Registrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.live(regNo)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return m.decode(row), nil
}

func (m *Registrants) ExistsByRegNo(_ context.Context, regNo string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(regNo)
	return ok, nil
}

func (m *Registrants) List(_ context.Context, f entity.ListFilter) ([]*entity.Registrant, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFilter = f
	all := m.sorted(func(r map[string]any) bool { return r[entity.ColIsDeleted] == false })
	total := int64(len(all))
	if f.Offset >= len(all) {
		return []*entity.Registrant{}, total, nil
	}
	end := min(f.Offset+f.Limit, len(all))
	return all[f.Offset:end], total, nil
}

func (m *Registrants) sorted(keep func(map[string]any) bool) []*entity.Registrant {
	ids := make([]int64, 0, len(m.Rows))
	for id, r := range m.Rows {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := make([]*entity.Registrant, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.decode(m.Rows[id]))
	}
	return out
}

func (m *Registrants) DistinctValues(_ context.Context, columns []string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DistinctHits++
	out := map[string][]string{}
	for _, c := range columns {
		seen := map[string]bool{}
		for _, r := range m.Rows {
			if s, ok := r[c].(string); ok && s != "" && r[entity.ColIsDeleted] == false && !seen[s] {
				seen[s] = true
				out[c] = append(out[c], s)
			}
		}
		sort.Strings(out[c])
	}
	return out, nil
}

func (m *Registrants) ListExpiring(_ context.Context, from, to time.Time) ([]*entity.Registrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(r map[string]any) bool {
		exp, ok := r[entity.ColExpiryDate].(time.Time)
		return ok && r[entity.ColIsDeleted] == false && !exp.Before(from) && !exp.After(to)
	}), nil
}

func (m *Registrants) UpdateStatus(_ context.Context, id int64, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusWrites = append(m.StatusWrites, StatusWrite{id, status})
	if m.StatusErr != nil {
		return m.StatusErr
	}
	row, ok := m.Rows[id]
	if !ok {
		return repo.ErrNotFound
	}
	row[entity.ColStatus] = status
	row[entity.ColUpdatedAt] = at
	return nil
}

func (m *Registrants) SoftDelete(_ context.Context, regNo, deletedBy string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.live(regNo); ok {
		row[entity.ColIsDeleted] = true
		row[entity.ColDeletedBy] = deletedBy
		row[entity.ColUpdatedAt] = at
		return nil
	}
	for _, r := range m.Rows {
		if r[entity.ColRegNo] == regNo {
			return repo.ErrAlreadyDeleted
		}
	}
	return repo.ErrNotFound
}

var _ repo.RegistrantRepository = (*Registrants)(nil)
