package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/karaoke/internal/events"
	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	LeaderboardView
	SingersView
	RateView
	ConfirmDeleteView
)

// tabs are the views reachable with the tab key, in order.
var tabs = []ViewState{QueueView, LeaderboardView, SingersView}

func (v ViewState) String() string {
	switch v {
	case QueueView:
		return "Queue"
	case LeaderboardView:
		return "Leaderboard"
	case SingersView:
		return "Singers"
	case RateView:
		return "Rate"
	case ConfirmDeleteView:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	session     *tasks.Session
	width       int
	height      int
	queueList   list.Model
	report      *formatter.Report
	singers     []*models.Singer
	changes     <-chan events.Kind
	unsubscribe func()
	target      *models.Song
	rating      float64
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a TUI model over session and subscribes to its change notifications.
// Call [Model.Close] once the program exits.
func NewModel(ctx context.Context, session *tasks.Session) *Model {
	queueList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	queueList.Title = "Up Next"
	queueList.SetFilteringEnabled(false)
	queueList.SetShowHelp(false)
	queueList.SetStatusBarItemName("song", "songs")

	changes, unsubscribe := session.Bus().Channel(16)
	return &Model{
		ctx:         ctx,
		view:        QueueView,
		session:     session,
		queueList:   queueList,
		changes:     changes,
		unsubscribe: unsubscribe,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, session *tasks.Session) error {
	m := NewModel(ctx, session)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Close stops listening for change notifications.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init loads the session and starts waiting for changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForChange())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queueList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueueView:
			return m.handleQueueKeys(msg)
		case LeaderboardView, SingersView:
			return m.handleTabKeys(msg)
		case RateView:
			return m.handleRateKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.queueList, cmd = m.queueList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoaded:
		data := msg.data.(loaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.report = data.report
		m.singers = data.singers
		m.queueList.SetItems(queueItems(data.report.Queue))
		return m, nil

	case MsgChanged:
		return m, tea.Batch(m.load(), m.waitForChange())

	case MsgCommandDone:
		data := msg.data.(commandDone)
		m.err = data.err
		m.status = data.status
		return m, nil
	}
	return m, nil
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	song := m.selected()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		m.nextTab()
		return m, nil
	case key.Matches(msg, m.keys.fairPlay):
		m.session.SetFairPlay(!m.session.FairPlay())
		m.status = fmt.Sprintf("Fair play %s", onOff(m.session.FairPlay()))
		return m, nil
	case key.Matches(msg, m.keys.rotate):
		m.session.SetAutoRotate(!m.session.AutoRotate())
		m.status = fmt.Sprintf("Auto-rotate %s", onOff(m.session.AutoRotate()))
		return m, nil
	}

	if song == nil {
		var cmd tea.Cmd
		m.queueList, cmd = m.queueList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.complete):
		m.target = song
		m.rating = 0
		m.view = RateView
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.queueList.CursorUp()
		return m, m.move(song, -1)
	case key.Matches(msg, m.keys.moveDown):
		m.queueList.CursorDown()
		return m, m.move(song, 1)
	case key.Matches(msg, m.keys.remove):
		m.target = song
		m.view = ConfirmDeleteView
		return m, nil
	case key.Matches(msg, m.keys.open):
		return m, m.open(song)
	}

	var cmd tea.Cmd
	m.queueList, cmd = m.queueList.Update(msg)
	return m, cmd
}

func (m *Model) handleTabKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		m.nextTab()
	case key.Matches(msg, m.keys.back):
		m.view = QueueView
	}
	return m, nil
}

func (m *Model) handleRateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.target = nil
		m.view = QueueView
		return m, nil
	case key.Matches(msg, m.keys.confirm):
		song, rating := m.target, m.rating
		m.target = nil
		m.view = QueueView
		return m, m.complete(song, rating)
	case key.Matches(msg, m.keys.lower):
		m.rating = stepRating(m.rating, -models.RatingStep)
		return m, nil
	case key.Matches(msg, m.keys.raise):
		m.rating = stepRating(m.rating, models.RatingStep)
		return m, nil
	}

	if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '5' {
		m.rating = float64(s[0] - '0')
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		song := m.target
		m.target = nil
		m.view = QueueView
		return m, m.remove(song)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.target = nil
		m.view = QueueView
	}
	return m, nil
}

func (m *Model) nextTab() {
	for i, v := range tabs {
		if v == m.view {
			m.view = tabs[(i+1)%len(tabs)]
			return
		}
	}
	m.view = QueueView
}

func (m *Model) selected() *models.Song {
	if item, ok := m.queueList.SelectedItem().(songItem); ok {
		return item.row.Song
	}
	return nil
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		report, err := m.session.Report(m.ctx)
		if err != nil {
			return loadedMsg(nil, nil, err)
		}
		singers, err := m.session.Singers(m.ctx)
		return loadedMsg(report, singers, err)
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case kind, ok := <-m.changes:
			if !ok {
				return nil
			}
			return changedMsg(kind)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) complete(song *models.Song, rating float64) tea.Cmd {
	return func() tea.Msg {
		result, err := m.session.CompleteSong(m.ctx, song.ID, &rating, m.session.AutoRotate())
		if err != nil {
			return commandDoneMsg("", err)
		}
		return commandDoneMsg(fmt.Sprintf("✓ %s completed (%s, %d logged)",
			result.Song.Title, formatter.FormatRating(ratingOrNil(rating)), len(result.Performances)), nil)
	}
}

func (m *Model) move(song *models.Song, delta int) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg("", m.session.MoveSong(m.ctx, song.ID, delta))
	}
}

func (m *Model) remove(song *models.Song) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.DeleteSong(m.ctx, song.ID); err != nil {
			return commandDoneMsg("", err)
		}
		return commandDoneMsg(fmt.Sprintf("Deleted %s", song.Title), nil)
	}
}

func (m *Model) open(song *models.Song) tea.Cmd {
	return func() tea.Msg {
		if song.YouTubeURL == "" {
			return commandDoneMsg("", fmt.Errorf("%w: %s has no video link", shared.ErrInvalidArgument, song.Title))
		}
		if err := shared.OpenBrowser(song.YouTubeURL); err != nil {
			return commandDoneMsg("", err)
		}
		return commandDoneMsg(fmt.Sprintf("Opened %s", song.Title), nil)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.report == nil {
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
		}
		return "Loading session..."
	}

	var body string
	switch m.view {
	case QueueView:
		body = m.queueList.View()
	case LeaderboardView:
		body = m.renderLeaderboard()
	case SingersView:
		body = m.renderSingers()
	case RateView:
		body = m.renderRate()
	case ConfirmDeleteView:
		body = m.renderConfirm()
	}

	return strings.Join([]string{m.renderHeader(), body, m.renderFooter()}, "\n")
}

func (m *Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("🎤 " + m.report.Session.Name))
	b.WriteString("\n")

	current := m.view
	if current == RateView || current == ConfirmDeleteView {
		current = QueueView
	}
	for _, v := range tabs {
		if v == current {
			b.WriteString(styles.activeTab.Render(v.String()))
		} else {
			b.WriteString(styles.tab.Render(v.String()))
		}
	}

	st := m.report.Stats
	b.WriteString(styles.help.Render(fmt.Sprintf("  fair play: %s • auto-rotate: %s • %d queued, ~%s",
		onOff(m.session.FairPlay()),
		onOff(m.session.AutoRotate()),
		st.SongsInQueue,
		shared.FormatMinutes(st.EstimatedMinutesRemaining),
	)))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderFooter() string {
	var line string
	switch {
	case m.err != nil:
		line = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.status != "":
		line = styles.ok.Render(m.status)
	}

	var helpView string
	switch m.view {
	case QueueView:
		helpView = m.help.ShortHelpView([]key.Binding{
			m.keys.complete, m.keys.moveUp, m.keys.moveDown, m.keys.remove,
			m.keys.fairPlay, m.keys.rotate, m.keys.open, m.keys.tab, m.keys.quit,
		})
	case RateView:
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.lower, m.keys.raise, m.keys.confirm, m.keys.back})
	case ConfirmDeleteView:
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	default:
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.tab, m.keys.back, m.keys.quit})
	}
	return fmt.Sprintf("\n%s\n%s", line, helpView)
}

func (m *Model) renderLeaderboard() string {
	if len(m.report.Leaderboard) == 0 {
		return styles.warn.Render("No rated performances yet.")
	}

	var b strings.Builder
	for i, entry := range m.report.Leaderboard {
		fmt.Fprintf(&b, "%-5s %-20s %s (%d rated)\n",
			humanize.Ordinal(i+1), entry.Name, formatter.FormatRating(&entry.AverageRating), entry.RatedCount)
	}
	if st := m.report.Stats; st.AverageRating != nil {
		fmt.Fprintf(&b, "\nAverage rating: %s over %d songs", formatter.FormatRating(st.AverageRating), st.TotalSongsPerformed)
	}
	return b.String()
}

func (m *Model) renderSingers() string {
	if len(m.singers) == 0 {
		return styles.warn.Render("No singers yet.")
	}

	performed := map[int64]int{}
	for _, p := range m.report.Performances {
		performed[p.SingerID]++
	}
	queued := map[int64]int{}
	for _, row := range m.report.Queue {
		for _, id := range row.Song.SingerIDs {
			queued[id]++
		}
	}

	var b strings.Builder
	for i, singer := range m.singers {
		fmt.Fprintf(&b, "%2d. %-20s %d performed, %d queued\n", i+1, singer.Name, performed[singer.ID], queued[singer.ID])
	}
	return b.String()
}

func (m *Model) renderRate() string {
	title := styles.title.Render(fmt.Sprintf("Complete '%s'", m.target.Title))
	rating := "unrated"
	if m.rating > 0 {
		rating = fmt.Sprintf("%s %s", formatter.FormatRating(&m.rating), stars(m.rating))
	}
	return fmt.Sprintf("%s\nRating: %s\n\n%s", title, rating, styles.help.Render("0 leaves the song unrated"))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Delete '%s' from the queue?", m.target.Title))
	return title
}

func stepRating(r, delta float64) float64 {
	return min(max(r+delta, 0), models.MaxRating)
}

func ratingOrNil(r float64) *float64 {
	if r == 0 {
		return nil
	}
	return &r
}

func stars(r float64) string {
	full := int(r)
	s := strings.Repeat("★", full)
	if r-float64(full) >= models.RatingStep {
		s += "½"
	}
	return s
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
