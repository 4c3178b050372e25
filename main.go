package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"matchpreview/internal/deck"
	"matchpreview/internal/game"
	"matchpreview/internal/input"
	"matchpreview/internal/pack"
	"matchpreview/internal/preload"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Grid geometry. Cards touch edge to edge so mapping a mouse position to a
// card is plain division.
const (
	gridCols  = 4
	cardBoxW  = 14 // content 12 + border
	cardBoxH  = 5  // content 3 + border
	gridTop   = 2  // lines above the grid: title + blank
	cardLabel = 12
)

var (
	redStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Select  key.Binding
	Restart key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Select:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "flip")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

type TickMsg struct {
	Token uuid.UUID
}

type ResolveMsg struct {
	Token uuid.UUID
}

func tickCmd(token uuid.UUID) tea.Cmd {
	return tea.Tick(game.TickInterval, func(time.Time) tea.Msg {
		return TickMsg{Token: token}
	})
}

func resolveCmd(token uuid.UUID) tea.Cmd {
	return tea.Tick(game.MismatchDelay, func(time.Time) tea.Msg {
		return ResolveMsg{Token: token}
	})
}

func noOp() tea.Msg {
	return nil
}

type model struct {
	manifest *pack.Manifest
	sess     *game.Session
	norm     *input.Normalizer
	cache    *preload.Cache

	cursor       int
	insufficient bool
	width        int
	height       int

	titleStyle   lipgloss.Style
	hiddenCard   lipgloss.Style
	flippedCard  lipgloss.Style
	matchedCard  lipgloss.Style
	cursorBorder lipgloss.Style
}

func initialModel(m *pack.Manifest, logger *zap.Logger) (*model, error) {
	cache := preload.NewCache(logger)
	cache.WarmCandidates(m.Candidates())
	cache.Warm(m.CardBack)

	sess := game.NewSession(m.Candidates(), logger)
	mdl := &model{
		manifest: m,
		sess:     sess,
		norm:     input.NewNormalizer(),
		cache:    cache,
	}
	mdl.buildStyles()

	if err := sess.Start(); err != nil {
		if err == deck.ErrNotEnoughImages {
			mdl.insufficient = true
			return mdl, nil
		}
		return nil, err
	}
	cache.WarmDeck(sess.Cards)

	return mdl, nil
}

func (m *model) buildStyles() {
	module := lipgloss.Color(m.manifest.ModuleColor)
	bg := lipgloss.Color(m.manifest.BackgroundColor)

	m.titleStyle = lipgloss.NewStyle().Bold(true).Foreground(module).Background(bg).Padding(0, 1)
	base := lipgloss.NewStyle().
		Width(cardBoxW - 2).
		Height(cardBoxH - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Border(lipgloss.RoundedBorder())
	m.hiddenCard = base.BorderForeground(module)
	m.flippedCard = base.BorderForeground(module).Bold(true)
	m.matchedCard = base.BorderForeground(lipgloss.Color("8")).Faint(true)
	m.cursorBorder = base.Border(lipgloss.ThickBorder()).BorderForeground(module)
}

func (m *model) Init() tea.Cmd {
	if m.sess.Status() == game.StatusPlaying {
		return tickCmd(m.sess.Token())
	}
	return noOp
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		m.sess.HandleTick(msg.Token)
		if msg.Token == m.sess.Token() && m.sess.Status() == game.StatusPlaying {
			return m, tickCmd(m.sess.Token())
		}
		return m, nil

	case ResolveMsg:
		m.sess.ResolveMismatch(msg.Token)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.sess.Close()
		m.norm.Reset()
		return m, tea.Quit

	case key.Matches(msg, keys.Restart):
		if m.insufficient {
			return m, nil
		}
		return m, m.restart()

	case key.Matches(msg, keys.Up):
		m.moveCursor(-gridCols)
	case key.Matches(msg, keys.Down):
		m.moveCursor(gridCols)
	case key.Matches(msg, keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, keys.Right):
		m.moveCursor(1)

	case key.Matches(msg, keys.Select):
		if m.insufficient {
			return m, nil
		}
		if m.sess.Status() == game.StatusCompleted {
			return m, m.restart()
		}
		// Keyboard select rides the click channel; the normalizer drops
		// it when it trails a pointer tap on the same gesture.
		if id, ok := m.norm.Click(m.cursor, time.Now()); ok {
			return m, m.applyTap(id)
		}
	}
	return m, nil
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.insufficient || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	id, over := m.cardAt(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if over {
			m.norm.PointerDown(id, msg.X, msg.Y)
		}
	case tea.MouseActionRelease:
		if !over {
			id = -1
		}
		if tapped, ok := m.norm.PointerUp(id, msg.X, msg.Y, time.Now()); ok {
			m.cursor = tapped
			return m, m.applyTap(tapped)
		}
	}
	return m, nil
}

func (m *model) applyTap(id int) tea.Cmd {
	if m.sess.HandleTap(id) == game.TapMismatch {
		return resolveCmd(m.sess.Token())
	}
	return nil
}

func (m *model) restart() tea.Cmd {
	if err := m.sess.Start(); err != nil {
		m.insufficient = err == deck.ErrNotEnoughImages
		return nil
	}
	m.cache.WarmDeck(m.sess.Cards)
	m.cursor = 0
	m.norm.Reset()
	return tickCmd(m.sess.Token())
}

func (m *model) moveCursor(delta int) {
	if m.insufficient || len(m.sess.Cards) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= len(m.sess.Cards) {
		return
	}
	m.cursor = next
}

// cardAt maps terminal cell coordinates to a card id.
func (m *model) cardAt(x, y int) (int, bool) {
	if y < gridTop || x < 0 || x >= gridCols*cardBoxW {
		return 0, false
	}
	row := (y - gridTop) / cardBoxH
	col := x / cardBoxW
	id := row*gridCols + col
	if id >= len(m.sess.Cards) {
		return 0, false
	}
	return id, true
}

func (m *model) View() string {
	if m.insufficient {
		valid := len(deck.Valid(m.manifest.Candidates()))
		msg := fmt.Sprintf("This pack has %d usable image(s). Memory Match needs at least 2.", valid)
		return m.titleStyle.Render(m.manifest.Name) + "\n\n" +
			redStyle.Render(msg) + "\n\n" +
			helpStyle.Render("Add more images to the pack, then reopen the preview. q quits.") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.titleStyle.Render(m.manifest.Name + " — Memory Match preview"))
	b.WriteString("\n\n")
	b.WriteString(m.renderGrid())
	b.WriteString("\n")

	stats := fmt.Sprintf("MOVES: %d | MATCHED: %d/%d | TIME: %s",
		m.sess.Moves, m.sess.MatchedPairs, m.sess.PairCount, formatElapsed(m.sess.Elapsed))
	b.WriteString(statsStyle.Render(stats))
	b.WriteString("\n")

	if m.sess.Status() == game.StatusCompleted {
		done := fmt.Sprintf("All pairs found in %d moves and %s!",
			m.sess.Moves, formatElapsed(m.sess.Elapsed))
		b.WriteString(greenStyle.Render(done))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/r play again · q quit"))
	} else {
		b.WriteString(helpStyle.Render("arrows move · enter flips · r restart · q quit · mouse works too"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m *model) renderGrid() string {
	cards := m.sess.Cards
	var rows []string
	for start := 0; start < len(cards); start += gridCols {
		end := start + gridCols
		if end > len(cards) {
			end = len(cards)
		}
		cells := make([]string, 0, gridCols)
		for _, c := range cards[start:end] {
			cells = append(cells, m.renderCard(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func (m *model) renderCard(c deck.Card) string {
	style := m.hiddenCard
	content := "░░░░░░"

	switch c.Face {
	case deck.FaceFlipped:
		style = m.flippedCard
		content = cardFace(c)
	case deck.FaceMatched:
		style = m.matchedCard
		content = cardFace(c) + "\n✓"
	}

	if c.ID == m.cursor && m.sess.Status() == game.StatusPlaying {
		style = m.cursorBorder
	}

	return style.Render(content)
}

// cardFace is the face-up label; nameless images degrade to a glyph.
func cardFace(c deck.Card) string {
	name := c.ImageName
	if name == "" {
		return "?"
	}
	if len(name) > cardLabel {
		name = name[:cardLabel-1] + "…"
	}
	return name
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

type colorFlag string

func (c *colorFlag) String() string {
	return string(*c)
}

func (c *colorFlag) Set(s string) error {
	if !pack.ValidHexColor(s) {
		return fmt.Errorf("invalid color %q (use #rrggbb)", s)
	}
	*c = colorFlag(s)
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	// The TUI owns the terminal, so debug output goes to a file.
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	config.OutputPaths = []string{"matchpreview.log"}
	config.ErrorOutputPaths = []string{"matchpreview.log"}
	return config.Build()
}

func main() {
	var debug bool
	var bgColor, moduleColor colorFlag
	var cardBack string

	flag.BoolVar(&debug, "debug", false, "Write debug logs to matchpreview.log")
	flag.BoolVar(&debug, "d", false, "Write debug logs (shorthand)")

	flag.Var(&bgColor, "background", "Override the pack's background color (#rrggbb)")
	flag.Var(&bgColor, "bg", "Override the pack's background color (shorthand)")

	flag.Var(&moduleColor, "module-color", "Override the pack's module color (#rrggbb)")
	flag.Var(&moduleColor, "mc", "Override the pack's module color (shorthand)")

	flag.StringVar(&cardBack, "card-back", "", "Override the pack's card back image URL")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <pack.yaml>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fmt.Fprintf(os.Stderr, "   -d, --debug                Write debug logs to matchpreview.log\n")
		fmt.Fprintf(os.Stderr, "  -bg, --background=#rrggbb  Override the pack's background color\n")
		fmt.Fprintf(os.Stderr, "  -mc, --module-color=#rrggbb Override the pack's module color\n")
		fmt.Fprintf(os.Stderr, "       --card-back=url       Override the pack's card back image\n")
		fmt.Fprintf(os.Stderr, "   -h, --help                 Show this help message\n")
	}

	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}

	manifest, err := pack.Load(args[0])
	if err != nil {
		fmt.Printf("Error loading pack: %v\n", err)
		os.Exit(1)
	}
	if bgColor != "" {
		manifest.BackgroundColor = string(bgColor)
	}
	if moduleColor != "" {
		manifest.ModuleColor = string(moduleColor)
	}
	if cardBack != "" {
		manifest.CardBack = cardBack
	}

	logger, err := newLogger(debug)
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	mdl, err := initialModel(manifest, logger)
	if err != nil {
		fmt.Printf("Error initializing preview: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(mdl, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error starting the program: %v\n", err)
		os.Exit(1)
	}
}
