package entity

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format of calendar-day fields.
const DateLayout = "2006-01-02"

// Registrant is one registered member. Lifecycle fields are typed; the
// profile attributes are opaque and kept by external key in Attributes.
type Registrant struct {
	ID         int64
	RegNo      string
	RegDate    *time.Time
	Plan       string
	Amount     int
	ValidDays  int
	ExpiryDate *time.Time
	Status     string
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string
	ModifiedBy string
	DeletedBy  string
	Attributes map[string]any
}

// Attr returns an attribute as a string, or "" when unset.
func (r *Registrant) Attr(key string) string {
	if r.Attributes == nil {
		return ""
	}
	if v, ok := r.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// ToMap renders the registrant with its external keys.
func (r *Registrant) ToMap() map[string]any {
	m := make(map[string]any, len(r.Attributes)+15)
	for k, v := range r.Attributes {
		m[k] = v
	}
	m[KeyID] = r.ID
	m[KeyRegNo] = r.RegNo
	m[KeyRegDate] = formatDate(r.RegDate)
	m[KeyPlan] = r.Plan
	m[KeyAmount] = r.Amount
	m[KeyValidDays] = r.ValidDays
	m[KeyExpiryDate] = formatDate(r.ExpiryDate)
	m[KeyStatus] = r.Status
	m[KeyIsDeleted] = r.IsDeleted
	m[KeyCreatedAt] = r.CreatedAt
	m[KeyUpdatedAt] = r.UpdatedAt
	m[KeyCreatedBy] = r.CreatedBy
	m[KeyModifiedBy] = r.ModifiedBy
	m[KeyDeletedBy] = r.DeletedBy
	return m
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}

// FromRow builds a registrant from a column-keyed row. Calendar-day columns
// are re-anchored at midnight in loc because the driver decodes DATE values
// as UTC midnight. Columns outside AllColumns are ignored.
func FromRow(row map[string]any, loc *time.Location) (*Registrant, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Registrant{Attributes: map[string]any{}}
	for col, v := range row {
		var err error
		switch col {
		case ColID:
			r.ID, err = toInt64(v)
		case ColRegNo:
			r.RegNo = toString(v)
		case ColRegDate:
			r.RegDate = toDate(v, loc)
		case ColPlan:
			r.Plan = toString(v)
		case ColAmount:
			var n int64
			n, err = toInt64(v)
			r.Amount = int(n)
		case ColValidDays:
			var n int64
			n, err = toInt64(v)
			r.ValidDays = int(n)
		case ColExpiryDate:
			r.ExpiryDate = toDate(v, loc)
		case ColStatus:
			r.Status = toString(v)
		case ColIsDeleted:
			b, _ := v.(bool)
			r.IsDeleted = b
		case ColCreatedAt:
			r.CreatedAt, _ = v.(time.Time)
		case ColUpdatedAt:
			r.UpdatedAt, _ = v.(time.Time)
		case ColCreatedBy:
			r.CreatedBy = toString(v)
		case ColModifiedBy:
			r.ModifiedBy = toString(v)
		case ColDeletedBy:
			r.DeletedBy = toString(v)
		default:
			if key, ok := AllColumns.Key(col); ok {
				r.Attributes[key] = v
			}
		}
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
	}
	return r, nil
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func toDate(v any, loc *time.Location) *time.Time {
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return &d
}
