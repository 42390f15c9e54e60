package application

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/metrics"
	"github.com/oksasatya/member-registry/pkg/mailer"
	mailtpl "github.com/oksasatya/member-registry/pkg/mailer/templates"
)

// QueueRenewalReminders enqueues a reminder for every registrant in the
// renewals-due report that has an email address and returns how many were
// queued. A failed publish is logged and skipped.
func (s *RegistrantService) QueueRenewalReminders(ctx context.Context, days int) (int, error) {
	if s.Jobs == nil {
		return 0, nil
	}
	due, err := s.RenewalsDue(ctx, days)
	if err != nil {
		return 0, err
	}
	queued := 0
	now := s.calc.Dates().Now()
	for _, r := range due {
		email := strings.TrimSpace(r.Attr(entity.KeyEmail))
		if email == "" {
			continue
		}
		job := mailer.EmailJob{
			To:       email,
			Template: mailtpl.RenewalReminder,
			Data: mailtpl.NewRenewalReminderData(s.Brand, r.Attr(entity.KeyName), email,
				membershipOf(r.Registrant, r.DaysLeft), mailtpl.WithTime(now)),
		}
		if s.publish(ctx, job, r.RegNo) {
			queued++
		}
	}
	metrics.RenewalRemindersQueued(queued)
	return queued, nil
}

func (s *RegistrantService) queueConfirmation(ctx context.Context, rec *entity.Registrant) {
	email := strings.TrimSpace(rec.Attr(entity.KeyEmail))
	if s.Jobs == nil || email == "" {
		return
	}
	left := s.calc.DaysLeft(dateArg(rec.ExpiryDate))
	job := mailer.EmailJob{
		To:       email,
		Template: mailtpl.RegistrationConfirmation,
		Data: mailtpl.NewRegistrationConfirmationData(s.Brand, rec.Attr(entity.KeyName), email,
			membershipOf(rec, left), mailtpl.WithTime(s.calc.Dates().Now())),
	}
	s.publish(ctx, job, rec.RegNo)
}

func (s *RegistrantService) publish(ctx context.Context, job mailer.EmailJob, regNo string) bool {
	if err := s.Jobs.PublishJSON(ctx, job); err != nil {
		metrics.EmailJob(job.Template, "error")
		s.logger.WithError(err).WithFields(logrus.Fields{
			"reg_no":   regNo,
			"template": job.Template,
		}).Warn("email job publish failed")
		return false
	}
	metrics.EmailJob(job.Template, "ok")
	return true
}

func membershipOf(rec *entity.Registrant, daysLeft int) mailtpl.Membership {
	m := mailtpl.Membership{
		RegNo:     rec.RegNo,
		Plan:      rec.Plan,
		Amount:    rec.Amount,
		ValidDays: rec.ValidDays,
		DaysLeft:  max(daysLeft, 0),
	}
	if rec.RegDate != nil {
		m.RegDate = *rec.RegDate
	}
	if rec.ExpiryDate != nil {
		m.ExpiryDate = *rec.ExpiryDate
	}
	return m
}
