package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fablewright/fablewright/internal/agent"
	"github.com/fablewright/fablewright/pkg/state"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
)

var titleCaser = cases.Title(language.English)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *state.Session
	gameState    state.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Completed transcript blocks plus the in-flight turn's buffers.
	transcript         []string
	streamingText      string
	streamingReasoning string
	lastNarrative      string
	choices            []string

	// Channels for the turn event stream of the in-flight action.
	events    chan agent.TurnEvent
	streamErr chan error

	// Session selection state
	showSessionModal bool
	summaries        []state.SessionSummary
	selectedSession  int
	loadingSessions  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type sessionsLoadedMsg struct {
	summaries []state.SessionSummary
	err       error
}

type sessionReadyMsg struct {
	session *state.Session
	err     error
}

type turnEventMsg struct {
	event agent.TurnEvent
}

type streamDoneMsg struct {
	err error
}

type statusMsg struct {
	text string
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")). // dark grey
			Italic(true)

	toolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:           cfg,
		client:           client,
		textarea:         ta,
		chatViewport:     chatVp,
		metaViewport:     metaVp,
		ready:            false,
		showSessionModal: true,
		loadingSessions:  true,
		selectedSession:  0,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showSessionModal {
		return m.loadSessions()
	}
	return textarea.Blink
}

// seedTranscript rebuilds the transcript blocks from a loaded session.
func (m *ConsoleUI) seedTranscript() {
	m.transcript = nil
	m.choices = nil
	if m.session == nil {
		return
	}

	m.gameState = m.session.GameState
	for _, turn := range m.session.Turns {
		m.transcript = append(m.transcript, narratorBlock(turn.StoryText))
		m.lastNarrative = turn.StoryText
		m.choices = turn.Choices
	}
	if len(m.choices) > 0 {
		m.transcript = append(m.transcript, choicesBlock(m.choices))
	}
}

func narratorBlock(storyText string) string {
	return narratorStyle.Render(AgentName+": ") + storyText
}

func choicesBlock(choices []string) string {
	var b strings.Builder
	for i, c := range choices {
		b.WriteString(choiceStyle.Render(fmt.Sprintf("%d. %s", i+1, c)))
		if i < len(choices)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("WORLD STATE") + "\n\n")

	content.WriteString("Time:\n")
	content.WriteString(titleCaser.String(m.gameState.Time) + "\n\n")

	content.WriteString("Location:\n")
	content.WriteString(titleCaser.String(m.gameState.Location) + "\n\n")

	content.WriteString("Outfit:\n")
	content.WriteString(titleCaser.String(m.gameState.Outfit) + "\n\n")

	if m.session != nil {
		content.WriteString("Game ID:\n")
		content.WriteString(m.session.ID.String()[:8] + "...\n\n")

		content.WriteString("Turns:\n")
		content.WriteString(fmt.Sprintf("%d played\n\n", m.session.TurnCount()))
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy story\n")
	content.WriteString("• 1-3: Pick a choice\n")
	content.WriteString("• /help: Help\n")

	return content.String()
}

// writeChatContent rebuilds the chat viewport for the current width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("FABLEWRIGHT") + "\n\n")
	content.WriteString("Type your actions below to shape the story.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, block := range m.transcript {
		content.WriteString(wordwrap.String(block, chatWidth) + "\n\n")
	}

	if m.streamingReasoning != "" {
		content.WriteString(reasoningStyle.Render(wordwrap.String(m.streamingReasoning, chatWidth)) + "\n\n")
	}
	if m.streamingText != "" {
		content.WriteString(wordwrap.String(narratorBlock(m.streamingText), chatWidth) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle session modal first
	if m.showSessionModal {
		return m.updateSessionModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to all components; each ignores events
		// outside its bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			if m.lastNarrative != "" {
				if err := clipboard.WriteAll(m.lastNarrative); err != nil {
					return m, func() tea.Msg { return statusMsg{text: "Copy failed: " + err.Error()} }
				}
				return m, func() tea.Msg { return statusMsg{text: "Story copied to clipboard"} }
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			// A bare choice number expands to the choice text.
			if len(input) == 1 && input >= "1" && input <= "9" {
				idx := int(input[0] - '1')
				if idx < len(m.choices) {
					input = m.choices[idx]
				}
			}

			return m.submitAction(input)
		}

	case turnEventMsg:
		m.applyTurnEvent(msg.event)
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, m.waitForEvent()

	case streamDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, errorStyle.Render("Error: "+msg.err.Error()))
		}
		m.events = nil
		m.streamErr = nil
		m.writeChatContent()
		return m, m.refreshSession()

	case sessionReadyMsg:
		if msg.err == nil && msg.session != nil {
			m.session = msg.session
			m.gameState = msg.session.GameState
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case statusMsg:
		m.transcript = append(m.transcript, promptStyle.Render(msg.text))
		m.writeChatContent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// submitAction starts a turn: the action goes on the transcript, the
// SSE stream is opened, and events are drained one message at a time.
func (m ConsoleUI) submitAction(action string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	m.loading = true
	m.progressTick = 0
	m.streamingText = ""
	m.streamingReasoning = ""
	m.choices = nil

	m.transcript = append(m.transcript, userStyle.Render("You: ")+action)
	m.writeChatContent()

	events := make(chan agent.TurnEvent)
	errs := make(chan error, 1)
	m.events = events
	m.streamErr = errs

	client := m.client
	baseURL := m.config.APIBaseURL
	id := m.session.ID

	go func() {
		errs <- streamAction(context.Background(), client, baseURL, id, action, events)
	}()

	return m, tea.Batch(m.waitForEvent(), progressTick())
}

// waitForEvent reads one turn event from the in-flight stream.
func (m ConsoleUI) waitForEvent() tea.Cmd {
	events := m.events
	errs := m.streamErr
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamDoneMsg{err: <-errs}
		}
		return turnEventMsg{event: ev}
	}
}

func (m *ConsoleUI) applyTurnEvent(ev agent.TurnEvent) {
	switch ev.Type {
	case agent.EventTextChunk:
		m.streamingText += ev.Content

	case agent.EventReasoningChunk:
		m.streamingReasoning += ev.Content

	case agent.EventToolCall:
		m.transcript = append(m.transcript, toolStyle.Render("⚙ "+ev.Name))

	case agent.EventToolResult:
		if ev.Result != nil {
			m.gameState = *ev.Result
		}

	case agent.EventError:
		m.transcript = append(m.transcript, errorStyle.Render("Error: "+ev.Message))

	case agent.EventTurnComplete:
		m.loading = false
		m.streamingText = ""
		m.streamingReasoning = ""
		m.lastNarrative = ev.StoryText
		m.choices = ev.Choices
		if ev.GameState != nil {
			m.gameState = *ev.GameState
		}
		m.transcript = append(m.transcript, narratorBlock(ev.StoryText))
		if len(ev.Choices) > 0 {
			m.transcript = append(m.transcript, choicesBlock(ev.Choices))
		}
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /state - Show the world state
• Ctrl+Y - Copy the last story text
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• Type 1, 2 or 3 to pick a suggested choice
• The narrator will respond to guide the story
`
		m.transcript = append(m.transcript, titleStyle.Render("Help:")+helpText)
		m.writeChatContent()

	case "/state":
		stateText := fmt.Sprintf("Time: %s\nLocation: %s\nOutfit: %s",
			titleCaser.String(m.gameState.Time),
			titleCaser.String(m.gameState.Location),
			titleCaser.String(m.gameState.Outfit))
		m.transcript = append(m.transcript, titleStyle.Render("World State:")+"\n"+stateText)
		m.writeChatContent()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		s, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionReadyMsg{session: s, err: err}
	}
}

func (m ConsoleUI) loadSessions() tea.Cmd {
	return func() tea.Msg {
		summaries, err := listSessions(m.client, m.config.APIBaseURL)
		return sessionsLoadedMsg{summaries: summaries, err: err}
	}
}

func (m ConsoleUI) startNewSession() tea.Cmd {
	return func() tea.Msg {
		s, err := createSession(m.client, m.config.APIBaseURL, "")
		return sessionReadyMsg{session: s, err: err}
	}
}

func (m ConsoleUI) resumeSession(id state.SessionSummary) tea.Cmd {
	return func() tea.Msg {
		s, err := getSession(m.client, m.config.APIBaseURL, id.ID)
		return sessionReadyMsg{session: s, err: err}
	}
}

func (m ConsoleUI) updateSessionModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionsLoadedMsg:
		m.loadingSessions = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.summaries = msg.summaries
		}

	case sessionReadyMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showSessionModal = false
			if m.width > 0 && m.height > 0 {
				m.resizePanels()
			}
			m.seedTranscript()
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingSessions {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedSession > 0 {
				m.selectedSession--
			}
		case tea.KeyDown:
			// Entry 0 is always "New Game"; saved games follow.
			if m.selectedSession < len(m.summaries) {
				m.selectedSession++
			}
		case tea.KeyEnter:
			m.loading = true
			if m.selectedSession == 0 {
				return m, m.startNewSession()
			}
			return m, m.resumeSession(m.summaries[m.selectedSession-1])
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showSessionModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved after every turn.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSessionModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingSessions {
		content.WriteString(modalTitleStyle.Render("Loading Saved Games..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch your saved games..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load saved games: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Preparing Your Adventure..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up the story..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Fablewright"))
		content.WriteString("\n\n")

		entries := []string{"✦ New Game"}
		for _, s := range m.summaries {
			name := s.Name
			if name == "" {
				name = s.ID.String()[:8]
			}
			entries = append(entries, fmt.Sprintf("%s (%d turns, %s)",
				name, s.TurnCount, s.LastPlayed.Format(time.DateOnly)))
		}

		for i, entry := range entries {
			if i == m.selectedSession {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + entry))
			} else {
				content.WriteString(modalItemStyle.Render("  " + entry))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showSessionModal {
		return m.renderSessionModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
