package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/config"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

const browseLogName = "browse.log"

// newBrowseCmd returns the "browse" subcommand for the interactive catalog.
func newBrowseCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse movies interactively",
		Long: "Browse popular or top rated movies, search, open details and toggle favorites.\n" +
			"Press ? inside the browser for keys.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := catalog.ParseMode(mode)
			if err != nil {
				return err
			}
			if start == catalog.ModeSearch {
				return fmt.Errorf("use / inside the browser to search")
			}
			return runBrowse(start, cmd.Flags().Changed("mode"))
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "popular", "initial listing: popular, top_rated or favorites (default: the last one shown)")
	return cmd
}

// runBrowse initializes services and starts the Bubble Tea browser. Logs
// go to a file in the data directory so they do not corrupt the screen.
// Unless explicit is set, the browser reopens the listing shown last.
func runBrowse(start catalog.Mode, explicit bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.App.DataDir, browseLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := config.SetupLogger(cfg.App.LogLevel, logFile)

	if !explicit {
		start = loadLastMode(cfg.App.DataDir)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := initServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	list := catalog.NewListController(svc.catalog, svc.store, logger)
	defer list.Close()
	details := catalog.NewDetailController(svc.catalog, svc.store, logger)

	p := tea.NewProgram(newBrowseModel(ctx, list, details, start), tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	followCtx, stopFollow := context.WithCancel(ctx)
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		_ = list.Follow(followCtx, forwardReloads(p.Send))
	}()

	final, err := p.Run()
	stopFollow()
	<-followed
	if err != nil {
		return fmt.Errorf("run browser: %w", err)
	}

	if bm, ok := final.(browseModel); ok {
		if err := saveLastMode(cfg.App.DataDir, bm.listing); err != nil {
			logger.Warn("failed to save last listing", slog.String("error", err.Error()))
		}
	}
	return nil
}

// forwardReloads turns favorites reloads made by ListController.Follow into
// list messages for the browser.
func forwardReloads(send func(tea.Msg)) func(catalog.Snapshot, error) {
	return func(snap catalog.Snapshot, err error) {
		send(listLoadedMsg{snap: snap, err: err})
	}
}

// browseView is the screen currently shown.
type browseView int

const (
	viewList browseView = iota
	viewSearch
	viewGoTo
	viewDetail
)

// listLoadedMsg carries a finished list load back to the TUI.
type listLoadedMsg struct {
	snap catalog.Snapshot
	err  error
}

// detailLoadedMsg carries an enriched movie back to the TUI.
type detailLoadedMsg struct {
	movie    movie.Movie
	favorite bool
	err      error
}

// favoriteMsg reports the outcome of a toggle or an undo.
type favoriteMsg struct {
	outcome catalog.Outcome
	undo    bool
}

// loadFunc is one of the list controller's loading operations.
type loadFunc func(ctx context.Context) (catalog.Snapshot, error)

// browseModel is the Bubble Tea model for the catalog browser.
type browseModel struct {
	ctx     context.Context
	list    *catalog.ListController
	details *catalog.DetailController
	start   catalog.Mode

	// listing is the last non-search listing shown.
	listing catalog.Mode

	view     browseView
	snap     catalog.Snapshot
	selected int

	detail     movie.Movie
	favorite   bool
	lastChange catalog.Outcome // last toggle that can still be undone

	loading  bool
	status   string
	showHelp bool

	viewport  viewport.Model
	textinput textinput.Model
	spinner   spinner.Model
	width     int
	height    int
	ready     bool
}

// newBrowseModel creates a browseModel that starts on the given listing.
func newBrowseModel(ctx context.Context, list *catalog.ListController, details *catalog.DetailController, start catalog.Mode) browseModel {
	ti := textinput.New()
	ti.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:        ctx,
		list:       list,
		details:    details,
		start:      start,
		listing:    start,
		snap:       catalog.Snapshot{Mode: start, Page: 1},
		textinput:  ti,
		spinner:    s,
		loading:    true,
		lastChange: catalog.OutcomeFailed,
	}
}

// Init loads the first listing.
func (m browseModel) Init() tea.Cmd {
	list, start := m.list, m.start
	load := func(ctx context.Context) (catalog.Snapshot, error) {
		return list.SetMode(ctx, start)
	}
	return tea.Batch(m.spinner.Tick, m.loadList(load))
}

// Update handles incoming messages and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)

	case tea.KeyMsg:
		model, cmd, handled := m.handleKey(msg)
		if handled {
			return model, cmd
		}

	case listLoadedMsg:
		m.handleList(msg)
		return m, nil

	case detailLoadedMsg:
		m.handleDetail(msg)
		return m, nil

	case favoriteMsg:
		m.handleFavorite(msg)
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if m.view == viewSearch || m.view == viewGoTo {
		var tiCmd tea.Cmd
		m.textinput, tiCmd = m.textinput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	if m.view == viewDetail && m.ready {
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleResize adjusts viewport and text input dimensions on terminal resize.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	headerHeight := 2
	footerHeight := 2
	vpHeight := m.height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	if m.view == viewDetail {
		m.viewport.SetContent(formatDetail(m.detail, m.favorite, m.width))
	}
	m.textinput.Width = m.width - 4
}

// handleKey dispatches key events for the current view.
func (m *browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return *m, tea.Quit, true
	}
	switch m.view {
	case viewSearch:
		return m.handleSearchKey(msg)
	case viewGoTo:
		return m.handleGoToKey(msg)
	case viewDetail:
		return m.handleDetailKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *browseModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return *m, tea.Quit, true
	case "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(catalog.Movies(m.snap.Records))-1 {
			m.selected++
		}
	case "right", "n":
		if !m.snap.CanNext {
			return *m, nil, true
		}
		return m.startLoad(m.list.NextPage)
	case "left", "p":
		if !m.snap.CanPrev {
			return *m, nil, true
		}
		return m.startLoad(m.list.PrevPage)
	case "r":
		return m.startLoad(m.list.Refresh)
	case "1", "2", "3":
		list := m.list
		mode := map[string]catalog.Mode{"1": catalog.ModePopular, "2": catalog.ModeTopRated, "3": catalog.ModeFavorites}[msg.String()]
		return m.startLoad(func(ctx context.Context) (catalog.Snapshot, error) {
			return list.SetMode(ctx, mode)
		})
	case "/":
		m.view = viewSearch
		m.textinput.Placeholder = "Movie title..."
		m.textinput.SetValue(m.snap.Query)
		m.textinput.CursorEnd()
		return *m, m.textinput.Focus(), true
	case "g":
		if m.snap.Mode == catalog.ModeFavorites {
			return *m, nil, true
		}
		m.view = viewGoTo
		m.textinput.Placeholder = "Page number..."
		if m.snap.TotalKnown {
			m.textinput.Placeholder = fmt.Sprintf("Page number (1-%d)...", m.snap.TotalPages)
		}
		m.textinput.SetValue("")
		return *m, m.textinput.Focus(), true
	case "enter":
		return m.openDetail()
	default:
		return *m, nil, false
	}
	return *m, nil, true
}

func (m *browseModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "esc":
		m.view = viewList
		m.textinput.Blur()
		return *m, nil, true
	case "enter":
		query := strings.TrimSpace(m.textinput.Value())
		if query == "" {
			return *m, nil, true
		}
		m.view = viewList
		m.textinput.Blur()
		list := m.list
		return m.startLoad(func(ctx context.Context) (catalog.Snapshot, error) {
			return list.Search(ctx, query)
		})
	}
	return *m, nil, false
}

func (m *browseModel) handleGoToKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "esc":
		m.view = viewList
		m.status = ""
		m.textinput.Blur()
		return *m, nil, true
	case "enter":
		page, err := strconv.Atoi(strings.TrimSpace(m.textinput.Value()))
		if err != nil {
			m.status = "Error: enter a page number"
			return *m, nil, true
		}
		m.view = viewList
		m.textinput.Blur()
		list := m.list
		return m.startLoad(func(ctx context.Context) (catalog.Snapshot, error) {
			return list.GoToPage(ctx, page)
		})
	}
	return *m, nil, false
}

func (m *browseModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return *m, tea.Quit, true
	case "esc", "backspace", "b":
		m.view = viewList
		m.status = ""
		return *m, nil, true
	case "f":
		return *m, m.toggleFavorite(), true
	case "u":
		if m.lastChange == catalog.OutcomeFailed {
			m.status = "Nothing to undo."
			return *m, nil, true
		}
		return *m, m.undoFavorite(), true
	case "r":
		m.loading = true
		return *m, tea.Batch(m.loadDetail(true), m.spinner.Tick), true
	}
	return *m, nil, false
}

// startLoad begins a list load and shows the spinner until it completes.
func (m *browseModel) startLoad(fn loadFunc) (tea.Model, tea.Cmd, bool) {
	m.loading = true
	m.status = ""
	return *m, tea.Batch(m.loadList(fn), m.spinner.Tick), true
}

// openDetail switches to the detail view for the selected movie.
func (m *browseModel) openDetail() (tea.Model, tea.Cmd, bool) {
	movies := catalog.Movies(m.snap.Records)
	if m.selected < 0 || m.selected >= len(movies) {
		return *m, nil, true
	}
	m.detail = movies[m.selected]
	m.favorite = false
	m.lastChange = catalog.OutcomeFailed
	m.status = ""
	m.view = viewDetail
	m.loading = true
	m.viewport.SetContent(formatDetail(m.detail, m.favorite, m.width))
	m.viewport.GotoTop()
	return *m, tea.Batch(m.loadDetail(false), m.spinner.Tick), true
}

// handleList applies a finished list load.
func (m *browseModel) handleList(msg listLoadedMsg) {
	if errors.Is(msg.err, catalog.ErrSuperseded) {
		// A newer load is in flight and will report itself.
		return
	}
	m.loading = false
	if msg.snap.Mode != "" {
		if msg.snap.Mode != m.snap.Mode || msg.snap.Page != m.snap.Page || msg.snap.Query != m.snap.Query {
			m.selected = 0
		}
		m.snap = msg.snap
		if m.snap.Mode != catalog.ModeSearch {
			m.listing = m.snap.Mode
		}
	}
	if n := len(catalog.Movies(m.snap.Records)); m.selected >= n {
		m.selected = max(n-1, 0)
	}

	switch {
	case errors.Is(msg.err, catalog.ErrPageOutOfRange):
		m.status = "Error: " + msg.err.Error()
	case msg.err != nil:
		m.status = "Error: " + msg.err.Error() + " (r to retry)"
	case m.snap.State == catalog.StateEmpty:
		m.status = emptyText(m.snap.Mode)
	default:
		m.status = ""
	}
}

// handleDetail applies an enriched movie if it is still the one shown.
func (m *browseModel) handleDetail(msg detailLoadedMsg) {
	if msg.movie.ID != m.detail.ID {
		return
	}
	m.loading = false
	m.detail = msg.movie
	m.favorite = msg.favorite
	if msg.err != nil {
		m.status = "Could not read favorite status: " + msg.err.Error()
	}
	m.viewport.SetContent(formatDetail(m.detail, m.favorite, m.width))
}

// handleFavorite applies a toggle or undo outcome. Only a successful
// toggle can be undone, and only once.
func (m *browseModel) handleFavorite(msg favoriteMsg) {
	switch msg.outcome {
	case catalog.OutcomeAdded:
		m.favorite = true
		m.status = "Added to favorites."
	case catalog.OutcomeRemoved:
		m.favorite = false
		m.status = "Removed from favorites."
	default:
		m.status = "Could not update favorites."
	}
	switch {
	case msg.undo || msg.outcome == catalog.OutcomeFailed:
		m.lastChange = catalog.OutcomeFailed
	default:
		m.lastChange = msg.outcome
		m.status += " (u to undo)"
	}
	m.viewport.SetContent(formatDetail(m.detail, m.favorite, m.width))
}

// View renders the current screen with header and footer.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("5")).
		Render("Popular Movies")
	header := title + "  " + styleDim.Render(listHeading(m.snap))

	var body string
	switch m.view {
	case viewDetail:
		body = m.viewport.View()
	case viewSearch, viewGoTo:
		inputBorder := lipgloss.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("8"))
		body = m.renderRows() + "\n" + inputBorder.Render(m.textinput.View())
	default:
		body = m.renderRows()
	}

	return header + "\n\n" + body + "\n" + m.renderFooter()
}

// renderRows formats the loaded movies with the selection marker.
func (m browseModel) renderRows() string {
	movies := catalog.Movies(m.snap.Records)
	if len(movies) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, mv := range movies {
		marker := "  "
		line := formatMovieLine(i+1, mv)
		if i == m.selected {
			marker = styleSelected.Render("> ")
		}
		sb.WriteString(marker)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m browseModel) renderFooter() string {
	var status string
	switch {
	case m.loading:
		status = m.spinner.View() + styleDim.Render(" Loading...")
	case strings.HasPrefix(m.status, "Error") || strings.HasPrefix(m.status, "Could not"):
		status = styleError.Render(m.status)
	case m.status != "":
		status = styleInfo.Render(m.status)
	}

	help := m.helpText()
	if status == "" {
		return styleDim.Render(help)
	}
	return status + "\n" + styleDim.Render(help)
}

func (m browseModel) helpText() string {
	switch m.view {
	case viewSearch:
		return "enter search • esc cancel"
	case viewGoTo:
		return "enter go to page • esc cancel"
	case viewDetail:
		return "f favorite • u undo • r refresh • ↑/↓ scroll • esc back • q quit"
	}
	if m.showHelp {
		return "↑/↓ select • enter open • ←/→ page • g go to page • 1 popular • 2 top rated • 3 favorites • / search • r refresh • q quit"
	}
	return "enter open • ←/→ page • / search • ? keys • q quit"
}

// loadList returns a command that runs fn and reports the snapshot.
func (m browseModel) loadList(fn loadFunc) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := fn(ctx)
		return listLoadedMsg{snap: snap, err: err}
	}
}

// loadDetail returns a command that enriches the shown movie.
func (m browseModel) loadDetail(refresh bool) tea.Cmd {
	ctx, base, details := m.ctx, m.detail, m.details
	return func() tea.Msg {
		var enriched movie.Movie
		if refresh {
			enriched = details.Refresh(ctx, base)
		} else {
			enriched = details.Load(ctx, base)
		}
		fav, err := details.IsFavorite(ctx, base.ID)
		return detailLoadedMsg{movie: enriched, favorite: fav, err: err}
	}
}

func (m browseModel) toggleFavorite() tea.Cmd {
	ctx, target, details := m.ctx, m.detail, m.details
	return func() tea.Msg {
		return favoriteMsg{outcome: details.Toggle(ctx, target)}
	}
}

func (m browseModel) undoFavorite() tea.Cmd {
	ctx, target, details, done := m.ctx, m.detail, m.details, m.lastChange
	return func() tea.Msg {
		return favoriteMsg{outcome: details.Undo(ctx, done, target), undo: true}
	}
}
