package tui

import (
	"github.com/rsilvagit/go-vacancies/internal/jobstore"
	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/session"
)

// PageLoadedMsg carries a finished page fetch. The result keeps the session
// id of the request, so results of superseded sessions are dropped.
type PageLoadedMsg struct {
	Result session.Result
}

// LocalSubscribedMsg reports the outcome of opening the local postings feed.
type LocalSubscribedMsg struct {
	Sub *jobstore.Subscription
	Err error
}

// LocalSnapshotMsg is one complete snapshot of local postings.
type LocalSnapshotMsg struct {
	Sub       *jobstore.Subscription
	Vacancies []model.Vacancy
}

// LocalClosedMsg reports that the local postings feed ended.
type LocalClosedMsg struct {
	Sub *jobstore.Subscription
	Err error
}
