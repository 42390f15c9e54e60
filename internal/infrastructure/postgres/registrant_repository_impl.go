package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/domain/repository"
	"github.com/oksasatya/member-registry/pkg/fieldmap"
)

const table = "registrants"

const uniqueViolation = "23505"

type RegistrantRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
	cols string
}

// NewRegistrantRepository returns a repository whose DATE values are read as
// calendar days in loc.
func NewRegistrantRepository(pool *pgxpool.Pool, loc *time.Location) *RegistrantRepository {
	if loc == nil {
		loc = time.Local
	}
	return &RegistrantRepository{pool: pool, loc: loc, cols: quoteList(entity.AllColumns.Columns())}
}

func (r *RegistrantRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *RegistrantRepository) Create(ctx context.Context, a fieldmap.Assignments) (*entity.Registrant, error) {
	if a.Len() == 0 {
		return nil, fieldmap.ErrEmpty
	}
	ph := make([]string, a.Len())
	for i := range ph {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	sql := `INSERT INTO ` + table + ` (` + quoteList(a.Columns) + `)
		VALUES (` + strings.Join(ph, ", ") + `)
		RETURNING ` + r.cols
	return r.queryOne(ctx, sql, a.Values...)
}

func (r *RegistrantRepository) UpdateByRegNo(ctx context.Context, regNo string, a fieldmap.Assignments) (*entity.Registrant, error) {
	if a.Len() == 0 {
		return nil, fieldmap.ErrEmpty
	}
	sets := make([]string, a.Len())
	for i, c := range a.Columns {
		sets[i] = quote(c) + " = $" + strconv.Itoa(i+1)
	}
	args := append(append([]any{}, a.Values...), regNo)
	sql := `UPDATE ` + table + `
		SET ` + strings.Join(sets, ", ") + `
		WHERE reg_no = $` + strconv.Itoa(len(args)) + ` AND is_deleted = false
		RETURNING ` + r.cols
	return r.queryOne(ctx, sql, args...)
}

func (r *RegistrantRepository) GetByID(ctx context.Context, id int64) (*entity.Registrant, error) {
	return r.queryOne(ctx, `SELECT `+r.cols+` FROM `+table+` WHERE id = $1 AND is_deleted = false`, id)
}

func (r *RegistrantRepository) GetByRegNo(ctx context.Context, regNo string) (*entity.Registrant, error) {
	return r.queryOne(ctx, `SELECT `+r.cols+` FROM `+table+` WHERE reg_no = $1 AND is_deleted = false`, regNo)
}

func (r *RegistrantRepository) ExistsByRegNo(ctx context.Context, regNo string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM registrants WHERE reg_no = $1 AND is_deleted = false)
	`, regNo).Scan(&exists)
	if err != nil {
		return false, translate(err)
	}
	return exists, nil
}

func (r *RegistrantRepository) List(ctx context.Context, f entity.ListFilter) ([]*entity.Registrant, int64, error) {
	where := []string{"is_deleted = false"}
	args := []any{}
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		p := bind("%" + escapeLike(q) + "%")
		ors := make([]string, len(entity.SearchColumns))
		for i, c := range entity.SearchColumns {
			ors[i] = quote(c) + " ILIKE " + p
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	for i, c := range f.Equals.Columns {
		v := f.Equals.Values[i]
		if v == nil {
			continue
		}
		where = append(where, "LOWER("+quote(c)+") = LOWER("+bind(v)+")")
	}
	switch f.Status {
	case "active":
		where = append(where, "(expiry_date IS NULL OR expiry_date >= "+bind(f.Today)+")")
	case "expired":
		where = append(where, "expiry_date < "+bind(f.Today))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	dataArgs := append(append([]any{}, args...), f.Limit, f.Offset)
	sql := `SELECT ` + r.cols + ` FROM ` + table + `
		WHERE ` + cond + `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	out, err := r.queryMany(ctx, sql, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *RegistrantRepository) DistinctValues(ctx context.Context, columns []string) (map[string][]string, error) {
	batch := &pgx.Batch{}
	for _, c := range columns {
		q := quote(c)
		batch.Queue(`SELECT DISTINCT ` + q + ` FROM ` + table + `
			WHERE is_deleted = false AND ` + q + ` IS NOT NULL AND ` + q + ` <> ''
			ORDER BY 1`)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	out := make(map[string][]string, len(columns))
	for _, c := range columns {
		rows, err := br.Query()
		if err != nil {
			return nil, translate(err)
		}
		vals, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, translate(err)
		}
		out[c] = vals
	}
	return out, nil
}

func (r *RegistrantRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]*entity.Registrant, error) {
	return r.queryMany(ctx, `SELECT `+r.cols+` FROM `+table+`
		WHERE is_deleted = false AND expiry_date BETWEEN $1 AND $2
		ORDER BY expiry_date ASC, id ASC`, from, to)
}

func (r *RegistrantRepository) UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE registrants SET plan_status = $1, updated_at = $2 WHERE id = $3
	`, status, at, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RegistrantRepository) SoftDelete(ctx context.Context, regNo, deletedBy string, at time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE registrants
		SET is_deleted = true, deleted_by = $2, updated_at = $3
		WHERE reg_no = $1 AND is_deleted = false
	`, regNo, deletedBy, at)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() > 0 {
		return nil
	}

	var deleted bool
	err = r.pool.QueryRow(ctx, `SELECT is_deleted FROM registrants WHERE reg_no = $1`, regNo).Scan(&deleted)
	if err != nil {
		return translate(err)
	}
	if deleted {
		return repository.ErrAlreadyDeleted
	}
	// Restored concurrently between the two statements.
	return repository.ErrConflict
}

func (r *RegistrantRepository) queryOne(ctx context.Context, sql string, args ...any) (*entity.Registrant, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, translate(err)
	}
	return entity.FromRow(row, r.loc)
}

func (r *RegistrantRepository) queryMany(ctx context.Context, sql string, args ...any) ([]*entity.Registrant, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]*entity.Registrant, 0, len(maps))
	for _, m := range maps {
		rec, err := entity.FromRow(m, r.loc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return err
}

func quote(col string) string { return pgx.Identifier{col}.Sanitize() }

func quoteList(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ repository.RegistrantRepository = (*RegistrantRepository)(nil)
