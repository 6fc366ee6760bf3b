// Package tui is a terminal search client driven by a search.Controller.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/index"
	"github.com/lazysearch/lazysearch/internal/search"
	"github.com/lazysearch/lazysearch/internal/search/state"
)

// Backend resolves indexes and checks that they answer.
type Backend interface {
	search.Resolver
	Ping(ctx context.Context, name string) error
}

// Config holds the client settings.
type Config struct {
	Index       string
	Delay       time.Duration
	HitsPerPage int
	PingTimeout time.Duration
	// FilterPresets are cycled with ctrl+f. An empty preset is always
	// available first.
	FilterPresets []string
	StaleResults  bool
}

// Model is the bubbletea model of the search client.
type Model struct {
	backend    Backend
	config     Config
	controller *search.Controller
	updates    chan state.State
	logger     zerolog.Logger
	styles     *Styles

	input   textinput.Model
	filters []string
	filter  int
	page    int
	epoch   int

	current  state.State
	ready    bool
	pingErr  error
	width    int
	quitting bool
}

// New creates the model. The controller starts with its gate closed; it
// opens once the readiness ping succeeds.
func New(backend Backend, cfg Config, logger zerolog.Logger) *Model {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 10 * time.Second
	}

	ti := textinput.New()
	ti.Placeholder = "Search " + cfg.Index
	ti.Prompt = "> "
	ti.Focus()

	m := &Model{
		backend: backend,
		config:  cfg,
		updates: make(chan state.State, 1),
		logger:  logger.With().Str("component", "tui").Logger(),
		styles:  NewStyles(),
		input:   ti,
		filters: append([]string{""}, cfg.FilterPresets...),
		current: state.Initial(),
	}

	opts := []search.Option{
		search.WithLogger(logger),
		search.WithOnChange(m.push),
	}
	if cfg.StaleResults {
		opts = append(opts, search.WithStaleResults())
	}
	m.controller = search.New(backend, m.params(), opts...)

	return m
}

// push keeps only the latest undelivered state. The controller calls it
// from a single goroutine.
func (m *Model) push(s state.State) {
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- s:
	default:
	}
}

func (m *Model) params() search.Params {
	return search.Params{
		IndexName:   m.config.Index,
		Query:       m.input.Value(),
		Filters:     m.filters[m.filter],
		Page:        m.page,
		HitsPerPage: m.config.HitsPerPage,
		Delay:       m.config.Delay,
		Key:         m.epoch,
	}
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: <-m.updates}
	}
}

func (m *Model) ping() tea.Cmd {
	backend, name, timeout := m.backend, m.config.Index, m.config.PingTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return readyMsg{err: backend.Ping(ctx, name)}
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.ping(), m.waitForState())
}

// Close tears down the controller.
func (m *Model) Close() {
	m.controller.Close()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case readyMsg:
		m.pingErr = msg.err
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Str("index", m.config.Index).Msg("Index is not ready")
			return m, nil
		}
		m.ready = true
		m.controller.Activate()
		return m, nil

	case stateMsg:
		m.current = msg.state
		return m, m.waitForState()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		m.controller.Close()
		return m, tea.Quit

	case "pgdown":
		if r := m.current.Results; r != nil && m.page+1 >= r.NbPages {
			return m, nil
		}
		m.page++
		m.controller.Update(m.params())
		return m, nil

	case "pgup":
		if m.page > 0 {
			m.page--
			m.controller.Update(m.params())
		}
		return m, nil

	case "ctrl+f":
		m.filter = (m.filter + 1) % len(m.filters)
		m.page = 0
		m.controller.Update(m.params())
		return m, nil

	case "ctrl+r":
		if !m.ready {
			return m, m.ping()
		}
		m.epoch++
		m.controller.Update(m.params())
		return m, nil

	case "ctrl+l":
		m.controller.ClearCache()
		return m, nil

	case "ctrl+x":
		m.controller.Reset()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.page = 0
		m.controller.Update(m.params())
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("lazysearch · " + m.config.Index))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	status := fmt.Sprintf("page %d · key %d", m.page+1, m.epoch)
	if f := m.filters[m.filter]; f != "" {
		status += " · " + m.styles.Filter.Render(f)
	}
	b.WriteString(m.styles.Status.Render(status))
	b.WriteString("\n\n")

	switch {
	case m.pingErr != nil:
		b.WriteString(m.styles.Error.Render("index unavailable: " + m.pingErr.Error()))
		b.WriteString("\n")
		b.WriteString(m.styles.Dim.Render("ctrl+r to retry"))
	case !m.ready:
		b.WriteString(m.styles.Loading.Render("connecting..."))
	default:
		m.renderState(&b)
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("pgup/pgdn page · ctrl+f filter · ctrl+r refresh · ctrl+l clear cache · ctrl+x reset · esc quit"))
	return b.String()
}

func (m *Model) renderState(b *strings.Builder) {
	s := m.current
	if s.Loading() {
		b.WriteString(m.styles.Loading.Render("searching..."))
		b.WriteString("\n")
	}
	if s.Err != nil {
		b.WriteString(m.styles.Error.Render(s.Err.Error()))
		b.WriteString("\n")
		return
	}
	if s.Results == nil {
		return
	}

	r := s.Results
	b.WriteString(m.styles.Dim.Render(fmt.Sprintf("%d hits · page %d of %d", r.NbHits, r.Page+1, max(r.NbPages, 1))))
	b.WriteString("\n")
	for _, hit := range r.Hits {
		b.WriteString(renderHit(m.styles, hit))
		b.WriteString("\n")
	}
}

func renderHit(st *Styles, hit index.Hit) string {
	name, _ := hit["title"].(string)
	if name == "" {
		name = hit.ObjectID()
	}
	var details []string
	for _, field := range []string{"year", "type", "genre"} {
		if v, ok := hit[field]; ok && v != nil {
			details = append(details, fmt.Sprint(v))
		}
	}
	line := st.HitName.Render(name)
	if len(details) > 0 {
		line += " " + st.Dim.Render("("+strings.Join(details, ", ")+")")
	}
	return line
}
