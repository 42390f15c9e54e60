package templates

import (
	"strings"
	"time"
)

const dateText = "02 January 2006"

// Brand carries the sender identity rendered in every email footer.
type Brand struct {
	CompanyName    string
	CompanyAddress string
	AppName        string
	LogoURL        string
	SupportURL     string
	PrivacyURL     string
	UnsubscribeURL string
	RenewURL       string
}

// Membership is the plan snapshot an email refers to.
type Membership struct {
	RegNo      string
	Plan       string
	Amount     int
	ValidDays  int
	RegDate    time.Time
	ExpiryDate time.Time
	DaysLeft   int
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		d.TimeAt = t
		d.Time = t.Format("02 January 2006, 15:04 MST")
	}
}

func WithMembership(m Membership) Option {
	return func(d *EmailData) {
		d.RegNo = m.RegNo
		d.Plan = m.Plan
		d.Amount = m.Amount
		d.ValidDays = m.ValidDays
		d.DaysLeft = m.DaysLeft
		if !m.RegDate.IsZero() {
			d.RegDateText = m.RegDate.Format(dateText)
		}
		if !m.ExpiryDate.IsZero() {
			d.ExpiryDateText = m.ExpiryDate.Format(dateText)
		}
	}
}

// NewBaseEmailData fills the shared fields from b, then applies opts.
func NewBaseEmailData(b Brand, typ, name, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           strings.TrimSpace(name),
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		AppName:        b.AppName,

		LogoURL:        b.LogoURL,
		SupportURL:     b.SupportURL,
		PrivacyURL:     b.PrivacyURL,
		UnsubscribeURL: b.UnsubscribeURL,
		RenewURL:       b.RenewURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewRegistrationConfirmationData(b Brand, name, recipient string, m Membership, opts ...Option) map[string]any {
	opts = append([]Option{WithMembership(m)}, opts...)
	return ToMap(NewBaseEmailData(b, RegistrationConfirmation, name, recipient, opts...))
}

func NewRenewalReminderData(b Brand, name, recipient string, m Membership, opts ...Option) map[string]any {
	opts = append([]Option{WithMembership(m)}, opts...)
	return ToMap(NewBaseEmailData(b, RenewalReminder, name, recipient, opts...))
}
