package entity

import (
	"time"

	"github.com/oksasatya/member-registry/pkg/fieldmap"
)

// ListFilter narrows a registrant listing. Equals holds whitelisted
// column/value pairs produced from ListFilters.
type ListFilter struct {
	Query  string
	Equals fieldmap.Assignments
	// Status filters on the expiry date relative to Today rather than on the
	// stored label, which may be stale.
	Status string
	Today  time.Time
	Limit  int
	Offset int
}
