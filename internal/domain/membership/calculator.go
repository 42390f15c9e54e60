package membership

import (
	"strings"
	"time"
)

// Status is the time-relative label derived from an expiry date.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Matches compares a stored status label case-insensitively.
func (s Status) Matches(stored string) bool {
	return strings.EqualFold(strings.TrimSpace(stored), string(s))
}

// Expiry holds the plan-derived fields of a registration.
type Expiry struct {
	Plan       Plan
	RegDate    time.Time
	ExpiryDate time.Time
	Amount     int
	ValidDays  int
}

// Calculator derives expiry, amount, validity and status from a registration
// date and a plan using an injected plan table and clock.
type Calculator struct {
	rules Rules
	dates *Dates
}

func NewCalculator(rules Rules, dates *Dates) *Calculator {
	if dates == nil {
		dates = NewDates(nil, nil)
	}
	return &Calculator{rules: rules, dates: dates}
}

func (c *Calculator) Dates() *Dates { return c.dates }
func (c *Calculator) Rules() Rules  { return c.rules }

// Expiry computes the plan fields for a raw registration date. The expiry is
// the registration calendar day plus the plan's validity in calendar days.
func (c *Calculator) Expiry(regDate any, plan string) Expiry {
	p, rule := c.rules.Resolve(plan)
	reg := c.dates.Day(c.dates.Normalize(regDate))
	return Expiry{
		Plan:       p,
		RegDate:    reg,
		ExpiryDate: reg.AddDate(0, 0, rule.ValidDays),
		Amount:     rule.Amount,
		ValidDays:  rule.ValidDays,
	}
}

// Status is active while the expiry calendar day is today or later.
func (c *Calculator) Status(expiry any) Status {
	if c.DaysLeft(expiry) >= 0 {
		return StatusActive
	}
	return StatusExpired
}

// DaysLeft is the signed number of calendar days from today to expiry.
func (c *Calculator) DaysLeft(expiry any) int {
	exp := c.dates.Day(c.dates.Normalize(expiry))
	return DaysBetween(c.dates.Today(), exp)
}
