package publish

import (
	"context"
	"errors"
)

// Publisher delivers a run summary to one destination.
type Publisher interface {
	Publish(ctx context.Context, summary Summary) error
	Close() error
}

// Multi fans a summary out to several publishers. A failing publisher does not
// stop delivery to the rest.
type Multi struct {
	publishers []Publisher
}

// NewMulti wraps the given publishers, skipping nil entries.
func NewMulti(publishers ...Publisher) *Multi {
	m := &Multi{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// Len reports how many publishers are wrapped.
func (m *Multi) Len() int {
	return len(m.publishers)
}

// Publish delivers the summary to every publisher and joins their errors.
func (m *Multi) Publish(ctx context.Context, summary Summary) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
