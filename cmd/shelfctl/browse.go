package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var browseInterval time.Duration

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().DurationVar(&browseInterval, "interval", 5*time.Second, "Auto-refresh interval")
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog in an interactive terminal view",
	Long: `Browse the whole catalog in an interactive terminal table.

The view refreshes automatically and can be refreshed by hand with 'r'.
Use the arrow keys to move through the catalog and 'q' to quit.

Examples:
  # Browse the catalog
  shelfctl browse

  # Refresh every second
  shelfctl browse --interval 1s`,
	RunE: runBrowse,
}

// runBrowse handles the browse command
func runBrowse(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(newBrowseModel(serverURL, browseInterval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run catalog browser: %w", err)
	}
	return nil
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Header style - bright cyan background, bold black text
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Label style - dim cyan
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// Dim style - for units and secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Container style - rounded border with dim gray
	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	// Footer style - bright keys on dim background
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)
)

// browseModel represents the BubbleTea catalog browser model
type browseModel struct {
	serverURL  string
	interval   time.Duration
	lastUpdate time.Time
	count      int
	err        error
	quitting   bool

	table table.Model
}

// newBrowseModel creates a new catalog browser model
func newBrowseModel(serverURL string, interval time.Duration) browseModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Title", Width: 40},
		{Title: "Author", Width: 30},
		{Title: "Category", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("51"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("51")).
		Bold(false)
	t.SetStyles(s)

	return browseModel{
		serverURL: serverURL,
		interval:  interval,
		quitting:  false,
		table:     t,
	}
}

// Message types
type tickMsg time.Time
type catalogMsg BookListResponse
type errMsg error

// Init initializes the model
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchCatalog(),
	)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCatalog fetches the catalog from the server
func fetchCatalog() tea.Cmd {
	return func() tea.Msg {
		list, err := fetchBooks()
		if err != nil {
			return errMsg(err)
		}
		return catalogMsg(*list)
	}
}

// Update handles messages
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchCatalog()
		}

	case tickMsg:
		// Auto-refresh triggered
		return m, tea.Batch(
			tick(m.interval),
			fetchCatalog(),
		)

	case catalogMsg:
		rows := make([]table.Row, 0, len(msg.Books))
		for _, b := range msg.Books {
			rows = append(rows, table.Row{
				strconv.Itoa(b.ID),
				b.Title,
				b.Author,
				b.Category,
			})
		}
		m.table.SetRows(rows)
		m.count = msg.Count
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		// Error occurred
		m.err = error(msg)
		return m, nil
	}

	// Everything else, arrow keys included, drives the table.
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browser
func (m browseModel) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return m.renderError()
	}

	return m.renderCatalog()
}

// renderError renders the error view
func (m browseModel) renderError() string {
	header := headerStyle.Render(" shelfctl browse ")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot reach the shelfd server") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.serverURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure shelfd is running, or pass --server.") + "\n"

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" retry")
	content += footer + "\n"

	return containerStyle.Render(header + "\n" + content)
}

// renderCatalog renders the main catalog view
func (m browseModel) renderCatalog() string {
	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}

	header := headerStyle.Render(" shelfd Catalog ")
	headerLine := fmt.Sprintf("%s %s   %s",
		labelStyle.Render("Books:"),
		valueStyle.Render(strconv.Itoa(m.count)),
		dimStyle.Render(lastUpdateStr))

	var content string
	content += header + "\n"
	content += headerLine + "\n"
	content += "\n"
	content += m.table.View() + "\n"

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerKeyStyle.Render("[↑/↓]") + footerStyle.Render(" navigate  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))
	content += footer

	return containerStyle.Render(content)
}
