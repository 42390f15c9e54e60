package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/domain/membership"
	repo "github.com/oksasatya/member-registry/internal/domain/repository"
	"github.com/oksasatya/member-registry/internal/metrics"
)

// StatusReconciler recomputes the status of records as they are read and
// writes back labels that have drifted. The write-back runs inline but its
// failure never reaches the caller: the recomputed status is returned either
// way.
type StatusReconciler struct {
	repo   repo.RegistrantRepository
	calc   *membership.Calculator
	logger logrus.FieldLogger
}

func NewStatusReconciler(r repo.RegistrantRepository, calc *membership.Calculator, logger logrus.FieldLogger) *StatusReconciler {
	return &StatusReconciler{repo: r, calc: calc, logger: orDiscard(logger)}
}

// Reconcile sets rec.Status to the status derived from its expiry date and
// persists the correction when the stored label differs.
func (s *StatusReconciler) Reconcile(ctx context.Context, rec *entity.Registrant) {
	if rec == nil {
		return
	}
	fresh := s.calc.Status(dateArg(rec.ExpiryDate))
	stale := rec.Status
	rec.Status = string(fresh)
	if fresh.Matches(stale) {
		return
	}

	now := s.calc.Dates().Now()
	if err := s.repo.UpdateStatus(ctx, rec.ID, string(fresh), now); err != nil {
		metrics.StatusCorrected("failed")
		s.logger.WithError(err).WithFields(logrus.Fields{
			"id":     rec.ID,
			"reg_no": rec.RegNo,
			"stored": stale,
			"status": fresh,
		}).Warn("status write-back failed")
		return
	}
	metrics.StatusCorrected("corrected")
	rec.UpdatedAt = now
	s.logger.WithFields(logrus.Fields{"id": rec.ID, "stored": stale, "status": fresh}).Debug("status corrected")
}

func (s *StatusReconciler) ReconcileAll(ctx context.Context, recs []*entity.Registrant) {
	for _, rec := range recs {
		s.Reconcile(ctx, rec)
	}
}

// dateArg unwraps an optional date so an absent one reaches the normalizer as
// nil rather than as a typed nil pointer.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
