// Package tui is the terminal front end: a region selector, a search box and
// an endless list of live vacancies merged with local postings.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rsilvagit/go-vacancies/internal/jobstore"
	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/session"
)

var errFeedEnded = errors.New("local postings feed ended")

// Postings opens live snapshots of local postings.
type Postings interface {
	Watch(ctx context.Context) (*jobstore.Subscription, error)
}

type Options struct {
	Controller *session.Controller
	Regions    []model.Region
	// Postings may be nil; the list then shows external vacancies only.
	Postings Postings
}

type App struct {
	ctx        context.Context
	controller *session.Controller
	postings   Postings
	regions    []model.Region
	regionIdx  int

	keys   KeyMap
	search textinput.Model

	searching bool
	cursor    int
	offset    int

	sub      *jobstore.Subscription
	local    []model.Vacancy
	localErr error

	width  int
	height int
}

func NewApp(ctx context.Context, opts Options) *App {
	ti := textinput.New()
	ti.Placeholder = "должность, компания, навык"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	return &App{
		ctx:        ctx,
		controller: opts.Controller,
		postings:   opts.Postings,
		regions:    opts.Regions,
		keys:       Keys,
		search:     ti,
	}
}

// Init selects the first region and opens the local postings feed.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.subscribe()}
	if len(a.regions) > 0 {
		cmds = append(cmds, a.selectRegion(0))
	}
	return tea.Batch(cmds...)
}

// Close releases the local postings subscription.
func (a *App) Close() {
	if a.sub != nil {
		a.sub.Close()
		a.sub = nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if a.searching {
			return a, a.handleSearchKey(msg)
		}
		return a, a.handleKey(msg)

	case PageLoadedMsg:
		if !a.controller.Apply(msg.Result) {
			return a, nil
		}
		a.clampCursor()
		return a, nil

	case LocalSubscribedMsg:
		if msg.Err != nil {
			slog.Warn("local postings unavailable", "component", "tui", "err", msg.Err)
			a.localErr = msg.Err
			return a, nil
		}
		a.Close()
		a.sub = msg.Sub
		a.localErr = nil
		return a, waitForSnapshot(msg.Sub)

	case LocalSnapshotMsg:
		if msg.Sub != a.sub {
			return a, nil
		}
		a.local = msg.Vacancies
		a.clampCursor()
		return a, waitForSnapshot(msg.Sub)

	case LocalClosedMsg:
		if msg.Sub != a.sub {
			return a, nil
		}
		a.sub = nil
		a.localErr = msg.Err
		if a.localErr == nil {
			a.localErr = errFeedEnded
		}
		slog.Warn("local postings feed lost", "component", "tui", "err", a.localErr)
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.Close()
		return tea.Quit
	case key.Matches(msg, a.keys.PrevRegion):
		return a.shiftRegion(-1)
	case key.Matches(msg, a.keys.NextRegion):
		return a.shiftRegion(1)
	case key.Matches(msg, a.keys.Search):
		a.searching = true
		a.search.SetValue(a.controller.Snapshot().QueryText)
		a.search.CursorEnd()
		return a.search.Focus()
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return nil
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.items())-1 {
			a.cursor++
			return nil
		}
		return a.loadMore()
	case key.Matches(msg, a.keys.LoadMore):
		return a.loadMore()
	case key.Matches(msg, a.keys.Refresh):
		req, ok := a.controller.Refresh()
		if !ok {
			return nil
		}
		a.cursor, a.offset = 0, 0
		return a.fetch(req)
	case key.Matches(msg, a.keys.Resubscribe):
		if a.sub != nil {
			return nil
		}
		return a.subscribe()
	}
	return nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Submit):
		a.searching = false
		a.search.Blur()
		req, ok := a.controller.Search(a.search.Value())
		if !ok {
			return nil
		}
		a.cursor, a.offset = 0, 0
		return a.fetch(req)
	case key.Matches(msg, a.keys.Cancel):
		a.searching = false
		a.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	return cmd
}

func (a *App) shiftRegion(delta int) tea.Cmd {
	if len(a.regions) == 0 {
		return nil
	}
	idx := (a.regionIdx + delta + len(a.regions)) % len(a.regions)
	return a.selectRegion(idx)
}

func (a *App) selectRegion(idx int) tea.Cmd {
	a.regionIdx = idx
	a.cursor, a.offset = 0, 0
	return a.fetch(a.controller.SelectRegion(a.regions[idx]))
}

func (a *App) loadMore() tea.Cmd {
	req, ok := a.controller.LoadMore()
	if !ok {
		return nil
	}
	return a.fetch(req)
}

func (a *App) fetch(req session.Request) tea.Cmd {
	ctx, c := a.ctx, a.controller
	return func() tea.Msg {
		return PageLoadedMsg{Result: c.Fetch(ctx, req)}
	}
}

func (a *App) subscribe() tea.Cmd {
	if a.postings == nil {
		return nil
	}
	ctx, p := a.ctx, a.postings
	return func() tea.Msg {
		sub, err := p.Watch(ctx)
		return LocalSubscribedMsg{Sub: sub, Err: err}
	}
}

func waitForSnapshot(sub *jobstore.Subscription) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub.C()
		if !ok {
			return LocalClosedMsg{Sub: sub, Err: sub.Err()}
		}
		return LocalSnapshotMsg{Sub: sub, Vacancies: snap.Vacancies}
	}
}

func (a *App) items() []model.Vacancy {
	return a.controller.Snapshot().Merged(a.local)
}

func (a *App) clampCursor() {
	n := len(a.items())
	if a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
}

func (a *App) View() string {
	snap := a.controller.Snapshot()
	items := snap.Merged(a.local)

	var b strings.Builder
	b.WriteString(StyleHeader.Render("Вакансии"))
	b.WriteString("\n")
	b.WriteString(a.renderRegions())
	b.WriteString("\n")

	if a.searching {
		b.WriteString(a.search.View())
	} else if snap.QueryText != "" {
		b.WriteString(StyleMuted.Render("Поиск: " + snap.QueryText))
	}
	b.WriteString("\n")

	if snap.Err != nil {
		// A failed load-more keeps the pages already shown; m retries just that page.
		retry := " (r: повторить)"
		if snap.State == session.Ready && snap.HasMore {
			retry = " (m: повторить)"
		}
		b.WriteString(StyleError.Render("Ошибка загрузки: " + snap.Err.Error() + retry))
		b.WriteString("\n")
	}
	if a.localErr != nil {
		b.WriteString(StyleError.Render("Локальные вакансии недоступны: " + a.localErr.Error() + " (s: переподключить)"))
		b.WriteString("\n")
	}

	switch {
	case snap.State == session.Loading:
		b.WriteString(StyleMuted.Render("Загрузка..."))
		b.WriteString("\n")
	case len(items) == 0 && snap.State == session.Ready:
		b.WriteString(StyleMuted.Render("Вакансии не найдены."))
		b.WriteString("\n")
	default:
		b.WriteString(a.renderList(items))
	}

	b.WriteString(a.renderStatus(snap, len(items)))
	b.WriteString("\n")
	b.WriteString(renderHints(a.keys.ShortHelp()))
	return b.String()
}

func (a *App) renderRegions() string {
	chips := make([]string, 0, len(a.regions))
	for i, r := range a.regions {
		if i == a.regionIdx {
			chips = append(chips, StyleChipSelected.Render(r.DisplayName))
			continue
		}
		chips = append(chips, StyleChip.Render(r.DisplayName))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

// listHeight is the number of vacancies that fit on screen, three lines each.
func (a *App) listHeight() int {
	if a.height <= 0 {
		return 10
	}
	return max((a.height-8)/3, 1)
}

func (a *App) renderList(items []model.Vacancy) string {
	visible := a.listHeight()
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+visible {
		a.offset = a.cursor - visible + 1
	}
	end := min(a.offset+visible, len(items))

	var b strings.Builder
	for i := a.offset; i < end; i++ {
		b.WriteString(renderVacancy(items[i], i == a.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func renderVacancy(v model.Vacancy, selected bool) string {
	title := StyleTitle.Render(v.Title)
	if v.IsLocal {
		title += " " + StyleLocal.Render("[локальная]")
	}
	lines := []string{
		title,
		v.EmployerName + "  " + StyleSalary.Render(v.SalaryDisplay),
		StyleMuted.Render(v.Area + " · " + v.ExperienceLabel),
	}
	body := strings.Join(lines, "\n")
	if selected {
		return StyleSelected.Render(body)
	}
	return StyleItem.Render(body)
}

func (a *App) renderStatus(snap session.Snapshot, shown int) string {
	parts := []string{fmt.Sprintf("показано %d", shown)}
	if snap.Found > 0 {
		parts = append(parts, fmt.Sprintf("найдено %d", snap.Found))
	}
	switch {
	case snap.State == session.LoadingMore:
		parts = append(parts, "загрузка ещё...")
	case snap.State == session.Ready && snap.HasMore:
		parts = append(parts, "m: загрузить ещё")
	case snap.State == session.Ready:
		parts = append(parts, "конец списка")
	}
	return StyleMuted.Render(strings.Join(parts, " · "))
}

func renderHints(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+":"+h.Desc)
	}
	return StyleMuted.Render(strings.Join(hints, "  "))
}
