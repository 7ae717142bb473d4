package worker

import (
	"time"

	"golang.org/x/time/rate"
)

// Progress reports batch progress at most once per interval
type Progress struct {
	sometimes rate.Sometimes
	report    func(done int)
}

// NewProgress creates a progress reporter. The first tick always reports.
func NewProgress(interval time.Duration, report func(done int)) *Progress {
	return &Progress{
		sometimes: rate.Sometimes{First: 1, Interval: interval},
		report:    report,
	}
}

// Tick records that done items have completed
func (p *Progress) Tick(done int) {
	if p == nil || p.report == nil {
		return
	}
	p.sometimes.Do(func() { p.report(done) })
}
