package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/oksasatya/member-registry/internal/domain/entity"
	"github.com/oksasatya/member-registry/internal/domain/membership"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// clock is 2024-03-01 10:00 IST for every service test.
var clock = time.Date(2024, 3, 1, 10, 0, 0, 0, ist)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, ist) }

func newCalc() *membership.Calculator {
	return membership.NewCalculator(membership.DefaultRules(), membership.NewDates(func() time.Time { return clock }, ist))
}

type memCache struct {
	v           map[string][]string
	invalidated int
}

func (c *memCache) Get(context.Context) (map[string][]string, bool, error) {
	return c.v, c.v != nil, nil
}

func (c *memCache) Set(_ context.Context, v map[string][]string) error {
	c.v = v
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.v = nil
	c.invalidated++
	return nil
}

type memJobs struct {
	jobs []any
	err  error
}

func (j *memJobs) PublishJSON(_ context.Context, body any) error {
	if j.err != nil {
		return j.err
	}
	j.jobs = append(j.jobs, body)
	return nil
}

type memIndex struct {
	docs map[string]*entity.Registrant
}

func (x *memIndex) Index(_ context.Context, r *entity.Registrant) error {
	if x.docs == nil {
		x.docs = map[string]*entity.Registrant{}
	}
	x.docs[r.RegNo] = r
	return nil
}

func (x *memIndex) Remove(_ context.Context, regNo string) error {
	delete(x.docs, regNo)
	return nil
}

func (x *memIndex) Search(context.Context, string, int) ([]map[string]any, error) {
	return nil, errors.New("cluster red")
}

type memPhotos struct{ paths []string }

func (p *memPhotos) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	p.paths = append(p.paths, objectPath)
	return "https://storage.example.com/bucket/" + objectPath, nil
}
