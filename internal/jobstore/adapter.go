package jobstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/salary"
)

// LocalCurrency is the currency local posting salaries are entered in.
const LocalCurrency = "RUR"

var errFeedClosed = errors.New("change feed closed")

// Snapshot is the complete set of active local postings at one point in time.
type Snapshot struct {
	Vacancies []model.Vacancy
	At        time.Time
}

// Adapter maps the posting collection into vacancies and passes writes
// through to the store.
type Adapter struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewAdapter(store Store) *Adapter {
	return &Adapter{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// List returns the active postings as vacancies.
func (a *Adapter) List(ctx context.Context) ([]model.Vacancy, error) {
	postings, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return ToVacancies(postings), nil
}

// Create validates the form and stores a new active posting.
func (a *Adapter) Create(ctx context.Context, author model.Author, in model.PostingInput) (model.LocalJobPosting, error) {
	title, description, amount, err := in.Validate()
	if err != nil {
		return model.LocalJobPosting{}, err
	}

	p := model.LocalJobPosting{
		ID:          a.newID(),
		Title:       title,
		Description: description,
		Salary:      amount,
		CreatedBy:   author.UserID,
		CreatorMail: author.Email,
		CreatedAt:   a.now(),
		Status:      model.StatusActive,
	}
	if err := a.store.Insert(ctx, p); err != nil {
		return model.LocalJobPosting{}, err
	}
	return p, nil
}

// DeleteAs removes a posting only if userID created it.
func (a *Adapter) DeleteAs(ctx context.Context, id, userID string) error {
	p, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.CreatedBy != userID {
		return ErrForbidden
	}
	return a.store.Delete(ctx, id)
}

// Watch opens a live subscription. The first snapshot carries the current
// state; every later change produces a new complete snapshot, in the order
// changes were observed. Failure to subscribe returns a *SubscriptionError.
func (a *Adapter) Watch(ctx context.Context) (*Subscription, error) {
	// Subscribe before the initial read so no change between the two is lost.
	feed, err := a.store.Watch(ctx)
	if err != nil {
		return nil, &SubscriptionError{Err: err}
	}

	initial, err := a.List(ctx)
	if err != nil {
		feed.Close()
		return nil, &SubscriptionError{Err: fmt.Errorf("initial read: %w", err)}
	}

	s := &Subscription{
		c:    make(chan Snapshot),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run(ctx, a, feed, initial)
	return s, nil
}

// Subscribe is Watch with a callback. The callback runs on a single
// goroutine, never concurrently with itself. The returned func releases the
// subscription: it waits for a running callback to return, and no callback
// starts after it returns. It must not be called from inside the callback.
func (a *Adapter) Subscribe(ctx context.Context, onSnapshot func([]model.Vacancy)) (func(), error) {
	sub, err := a.Watch(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		released bool
	)
	go func() {
		for snap := range sub.C() {
			mu.Lock()
			if !released {
				onSnapshot(snap.Vacancies)
			}
			mu.Unlock()
		}
		if err := sub.Err(); err != nil {
			slog.Warn("local postings subscription ended", "component", "jobstore", "err", err)
		}
	}()

	return func() {
		mu.Lock()
		released = true
		mu.Unlock()
		sub.Close()
	}, nil
}

// Subscription is a live feed of snapshots. C is closed when the
// subscription ends; Err then reports why, or nil after Close or context
// cancellation.
type Subscription struct {
	c    chan Snapshot
	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

func (s *Subscription) C() <-chan Snapshot { return s.c }

// Close releases the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) run(ctx context.Context, a *Adapter, feed Feed, initial []model.Vacancy) {
	defer close(s.done)
	defer close(s.c)
	defer feed.Close()

	if !s.send(ctx, initial) {
		return
	}
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case _, ok := <-feed.Events():
			if !ok {
				s.fail(&SubscriptionError{Err: errFeedClosed})
				return
			}
			vacancies, err := a.List(ctx)
			if err != nil {
				// The next change re-reads the full collection anyway.
				slog.Warn("re-reading local postings failed", "component", "jobstore", "err", err)
				continue
			}
			if !s.send(ctx, vacancies) {
				return
			}
		}
	}
}

func (s *Subscription) send(ctx context.Context, vacancies []model.Vacancy) bool {
	select {
	case s.c <- Snapshot{Vacancies: vacancies, At: time.Now()}:
		return true
	case <-s.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// ToVacancies maps active postings to vacancies, preserving order.
func ToVacancies(postings []model.LocalJobPosting) []model.Vacancy {
	out := make([]model.Vacancy, 0, len(postings))
	for _, p := range postings {
		if p.Status != model.StatusActive {
			continue
		}
		out = append(out, ToVacancy(p))
	}
	return out
}

// ToVacancy maps one posting into the normalized vacancy shape.
func ToVacancy(p model.LocalJobPosting) model.Vacancy {
	amount := int(p.Salary)
	raw := model.SalaryRange{From: &amount, Currency: LocalCurrency}
	created := p.CreatedAt

	v := model.Vacancy{
		ID:              p.ID,
		Source:          model.SourceLocal,
		Title:           p.Title,
		EmployerName:    model.LocalEmployerLabel,
		Description:     p.Description,
		SalaryRaw:       raw,
		SalaryDisplay:   salary.FormatRange(raw),
		Area:            model.AreaNotSpecified,
		ExperienceLabel: model.ExperienceNotSpecified,
		IsLocal:         true,
	}
	if !created.IsZero() {
		v.PublishedAt = &created
	}
	return v
}
