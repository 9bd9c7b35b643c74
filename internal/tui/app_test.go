package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilvagit/go-vacancies/internal/fetcher"
	"github.com/rsilvagit/go-vacancies/internal/jobstore"
	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/session"
)

var regions = []model.Region{
	{ID: "1179", DisplayName: "Мирный"},
	{ID: "1183", DisplayName: "Покровск"},
}

type fakeFetcher struct {
	mu        sync.Mutex
	pages     int
	fail      bool
	failPages map[int]bool
	calls     []fetcher.Query
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) FetchPage(_ context.Context, q fetcher.Query) (fetcher.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	failPage := f.failPages[q.Page]
	f.mu.Unlock()
	if f.fail || failPage {
		return fetcher.Page{}, &fetcher.FetchError{Source: "fake", StatusCode: 503, Err: errors.New("unavailable")}
	}
	p := fetcher.Page{Page: q.Page, TotalPages: f.pages, Found: f.pages * 2}
	for i := 0; i < 2; i++ {
		p.Vacancies = append(p.Vacancies, model.Vacancy{
			ID:            fmt.Sprintf("%s-%d-%d", q.Region.ID, q.Page, i),
			Source:        model.SourceHH,
			Title:         fmt.Sprintf("%s вакансия %d.%d", q.Region.DisplayName, q.Page, i),
			EmployerName:  "Работодатель",
			SalaryDisplay: "з/п не указана",
		})
	}
	return p, nil
}

func (f *fakeFetcher) lastQuery() fetcher.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type failingPostings struct{}

func (failingPostings) Watch(context.Context) (*jobstore.Subscription, error) {
	return nil, &jobstore.SubscriptionError{Err: errors.New("redis down")}
}

func newTestApp(t *testing.T, f *fakeFetcher, postings Postings) *App {
	t.Helper()
	app := NewApp(context.Background(), Options{
		Controller: session.NewController(f, session.Options{PerPage: 2}),
		Regions:    regions,
		Postings:   postings,
	})
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

// run executes cmd and feeds its message back into the app.
func run(t *testing.T, app *App, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := app.Update(cmd())
	return next
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectRegionShowsFirstPage(t *testing.T) {
	f := &fakeFetcher{pages: 3}
	app := newTestApp(t, f, nil)

	run(t, app, app.selectRegion(0))

	view := app.View()
	assert.Contains(t, view, "Мирный вакансия 0.0")
	assert.Contains(t, view, "Мирный вакансия 0.1")
	assert.Contains(t, view, "m: загрузить ещё")
	assert.Equal(t, "1179", f.lastQuery().Region.ID)
}

func TestRegionSwitchDropsStalePage(t *testing.T) {
	f := &fakeFetcher{pages: 3}
	app := newTestApp(t, f, nil)

	first := app.selectRegion(0)
	_, second := app.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.NotNil(t, second)

	run(t, app, second)
	run(t, app, first)

	view := app.View()
	assert.Contains(t, view, "Покровск вакансия 0.0")
	assert.NotContains(t, view, "Мирный вакансия")
	assert.Equal(t, 1, app.regionIdx)
}

func TestRegionSelectionWraps(t *testing.T) {
	app := newTestApp(t, &fakeFetcher{pages: 1}, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyLeft})
	require.NotNil(t, cmd)
	assert.Equal(t, len(regions)-1, app.regionIdx)
}

func TestSearchSubmitStartsSession(t *testing.T) {
	f := &fakeFetcher{pages: 1}
	app := newTestApp(t, f, nil)
	run(t, app, app.selectRegion(0))

	app.Update(runes("/"))
	require.True(t, app.searching)
	app.Update(runes("вакансия 0.1"))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, app.searching)

	run(t, app, cmd)
	assert.Equal(t, "вакансия 0.1", f.lastQuery().Text)

	view := app.View()
	assert.Contains(t, view, "Поиск: вакансия 0.1")
	assert.Contains(t, view, "Мирный вакансия 0.1")
	assert.NotContains(t, view, "Мирный вакансия 0.0")
}

func TestSearchEscapeKeepsSession(t *testing.T) {
	f := &fakeFetcher{pages: 1}
	app := newTestApp(t, f, nil)
	run(t, app, app.selectRegion(0))

	app.Update(runes("/"))
	app.Update(runes("повар"))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.False(t, app.searching)
	assert.Len(t, f.calls, 1)
}

func TestKeysIgnoredWhileSearching(t *testing.T) {
	app := newTestApp(t, &fakeFetcher{pages: 1}, nil)
	run(t, app, app.selectRegion(0))

	app.Update(runes("/"))
	_, cmd := app.Update(runes("q"))

	assert.True(t, app.searching)
	if cmd != nil {
		_, quit := cmd().(tea.QuitMsg)
		assert.False(t, quit)
	}
}

func TestDownAtEndLoadsMore(t *testing.T) {
	f := &fakeFetcher{pages: 2}
	app := newTestApp(t, f, nil)
	run(t, app, app.selectRegion(0))

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, app.cursor)

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	run(t, app, cmd)
	assert.Equal(t, 1, f.lastQuery().Page)

	view := app.View()
	assert.Contains(t, view, "Мирный вакансия 1.1")
	assert.Contains(t, view, "конец списка")

	_, cmd = app.Update(runes("m"))
	assert.Nil(t, cmd, "no pages left")
}

func TestLoadMoreIgnoredWhileLoading(t *testing.T) {
	app := newTestApp(t, &fakeFetcher{pages: 3}, nil)
	pending := app.selectRegion(0)

	_, cmd := app.Update(runes("m"))
	assert.Nil(t, cmd)
	assert.Contains(t, app.View(), "Загрузка")

	run(t, app, pending)
	_, cmd = app.Update(runes("m"))
	assert.NotNil(t, cmd)
}

func TestFetchFailureShowsBannerAndRefreshRetries(t *testing.T) {
	f := &fakeFetcher{pages: 1, fail: true}
	app := newTestApp(t, f, nil)
	run(t, app, app.selectRegion(0))

	assert.Contains(t, app.View(), "Ошибка загрузки")

	f.fail = false
	_, cmd := app.Update(runes("r"))
	run(t, app, cmd)

	view := app.View()
	assert.NotContains(t, view, "Ошибка загрузки")
	assert.Contains(t, view, "Мирный вакансия 0.0")
}

func TestLoadMoreFailureKeepsPagesAndRetriesWithM(t *testing.T) {
	f := &fakeFetcher{pages: 3, failPages: map[int]bool{1: true}}
	app := newTestApp(t, f, nil)
	run(t, app, app.selectRegion(0))

	_, cmd := app.Update(runes("m"))
	run(t, app, cmd)

	view := app.View()
	assert.Contains(t, view, "Ошибка загрузки")
	assert.Contains(t, view, "m: повторить")
	assert.Contains(t, view, "Мирный вакансия 0.0")
	assert.Len(t, app.items(), 2)

	f.mu.Lock()
	f.failPages = nil
	f.mu.Unlock()
	_, cmd = app.Update(runes("m"))
	run(t, app, cmd)

	assert.Equal(t, 1, f.lastQuery().Page)
	assert.Len(t, app.items(), 4)
	assert.NotContains(t, app.View(), "Ошибка загрузки")
}

func TestFirstPageFailureOffersRefresh(t *testing.T) {
	app := newTestApp(t, &fakeFetcher{pages: 1, fail: true}, nil)
	run(t, app, app.selectRegion(0))

	view := app.View()
	assert.Contains(t, view, "r: повторить")
	assert.NotContains(t, view, "m: повторить")
}

func TestLocalSnapshotsMergedFirst(t *testing.T) {
	adapter := jobstore.NewAdapter(jobstore.NewMemoryStore())
	app := newTestApp(t, &fakeFetcher{pages: 1}, adapter)
	run(t, app, app.selectRegion(0))

	wait := run(t, app, app.subscribe())
	wait = run(t, app, wait)
	require.NotNil(t, app.sub)
	assert.Empty(t, app.local)

	_, err := adapter.Create(context.Background(), model.Author{UserID: "u1"}, model.PostingInput{
		Title: "Повар", Description: "Столовая", Salary: "60000",
	})
	require.NoError(t, err)
	run(t, app, wait)

	require.Len(t, app.local, 1)
	items := app.items()
	require.Len(t, items, 3)
	assert.Equal(t, "Повар", items[0].Title)

	view := app.View()
	assert.Contains(t, view, "[локальная]")
	assert.Less(t, strings.Index(view, "Повар"), strings.Index(view, "Мирный вакансия 0.0"))
}

func TestSubscriptionFailureShowsBanner(t *testing.T) {
	app := newTestApp(t, &fakeFetcher{pages: 1}, failingPostings{})
	run(t, app, app.selectRegion(0))

	next := run(t, app, app.subscribe())
	assert.Nil(t, next)
	assert.Contains(t, app.View(), "Локальные вакансии недоступны")
	assert.Contains(t, app.View(), "Мирный вакансия 0.0", "external results still shown")

	_, cmd := app.Update(runes("s"))
	assert.NotNil(t, cmd, "resubscribe offered after failure")
}

func TestClosedFeedOfOldSubscriptionIgnored(t *testing.T) {
	adapter := jobstore.NewAdapter(jobstore.NewMemoryStore())
	app := newTestApp(t, &fakeFetcher{pages: 1}, adapter)

	wait := run(t, app, app.subscribe())
	old := app.sub

	run(t, app, app.subscribe())
	require.NotSame(t, old, app.sub)

	// The old subscription was closed on replacement; its end is not an error.
	run(t, app, wait)
	assert.NoError(t, app.localErr)
	assert.NotNil(t, app.sub)
}

func TestQuitClosesSubscription(t *testing.T) {
	adapter := jobstore.NewAdapter(jobstore.NewMemoryStore())
	app := newTestApp(t, &fakeFetcher{pages: 1}, adapter)
	run(t, app, app.subscribe())
	sub := app.sub

	_, cmd := app.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, app.sub)

	_, open := <-sub.C()
	assert.False(t, open)
}

func TestInitWithoutRegions(t *testing.T) {
	app := NewApp(context.Background(), Options{
		Controller: session.NewController(&fakeFetcher{}, session.Options{}),
	})
	assert.Nil(t, app.Init(), "nothing to load without regions or postings")
	assert.Contains(t, app.View(), "Вакансии")
}
