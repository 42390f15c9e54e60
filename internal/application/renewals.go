package application

import (
	"context"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/domain/membership"
)

// KeyDaysLeft is the external key of the renewal annotation.
const KeyDaysLeft = "daysLeft"

// Renewal is a registrant annotated for the renewals-due report.
type Renewal struct {
	*entity.Registrant
	DaysLeft int
}

func (r Renewal) ToMap() map[string]any {
	m := r.Registrant.ToMap()
	m[KeyDaysLeft] = r.DaysLeft
	return m
}

// RenewalsDue lists non-deleted registrants expiring between today and today
// plus days, inclusive. Statuses are derived for the response only and never
// written back.
func (s *RegistrantService) RenewalsDue(ctx context.Context, days int) ([]Renewal, error) {
	if days < 0 {
		return nil, invalid("days must not be negative")
	}
	today := s.calc.Dates().Today()
	recs, err := s.repo.ListExpiring(ctx, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, translate(err)
	}

	out := make([]Renewal, 0, len(recs))
	for _, rec := range recs {
		left := s.calc.DaysLeft(dateArg(rec.ExpiryDate))
		status := membership.StatusActive
		if left < 0 {
			status = membership.StatusExpired
			left = 0
		}
		// Copy so the annotation does not leak into a shared record.
		cp := *rec
		cp.Status = string(status)
		out = append(out, Renewal{Registrant: &cp, DaysLeft: left})
	}
	return out, nil
}
