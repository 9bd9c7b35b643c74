// Package jobstore owns the collection of locally created job postings and
// exposes it to the rest of the application as a live feed of vacancies.
package jobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

var (
	// ErrNotFound is returned when a posting id does not exist.
	ErrNotFound = errors.New("jobstore: posting not found")
	// ErrForbidden is returned when a user deletes a posting they did not create.
	ErrForbidden = errors.New("jobstore: posting belongs to another user")
	// ErrSubscriptionFailed matches every *SubscriptionError.
	ErrSubscriptionFailed = errors.New("jobstore: subscription failed")
)

// SubscriptionError reports that a live subscription could not be
// established or was lost. It is distinct from an empty collection.
type SubscriptionError struct {
	Err error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("jobstore: subscription failed: %v", e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

func (e *SubscriptionError) Is(target error) bool { return target == ErrSubscriptionFailed }

// Store is the backing collection of postings.
type Store interface {
	// List returns every posting ordered by creation time, oldest first.
	List(ctx context.Context) ([]model.LocalJobPosting, error)
	Get(ctx context.Context, id string) (model.LocalJobPosting, error)
	Insert(ctx context.Context, p model.LocalJobPosting) error
	// Delete removes the posting or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Watch returns a feed that signals once per observed change.
	Watch(ctx context.Context) (Feed, error)
}

// Feed signals collection changes. Signals carry no payload: consumers
// re-read the full collection on every signal.
type Feed interface {
	Events() <-chan struct{}
	Close() error
}

// signal performs a non-blocking send. A full buffer already holds a pending
// signal, and the re-read it triggers will observe this change too.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
