package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// Dashboard panel indices.
const (
	panelInteractions = iota
	panelMetrics
	panelEvidence
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	interactions []interactionSnapshot
	typeCounts   map[string]int
	metricsData  *metricsSnapshot
	evidence     []evidenceSnapshot

	// State.
	loading bool
	err     error
}

type interactionSnapshot struct {
	id         string
	modType    string
	confidence float64
	status     string
}

type metricsSnapshot struct {
	interactionsRecorded int
	transitionsDetected  int
	flakyDetected        int
	learningsPromoted    int
	eventCount           int
}

type evidenceSnapshot struct {
	id     string
	kind   string
	weight float64
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	interactions []interactionSnapshot
	typeCounts   map[string]int
	metrics      *metricsSnapshot
	evidence     []evidenceSnapshot
	err          error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	confidenceHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	confidenceMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	confidenceLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	kindTransition = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	kindRuntime    = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	kindQuality    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelInteractions,
		loading:     true,
		typeCounts:  make(map[string]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.interactions = msg.interactions
		m.typeCounts = msg.typeCounts
		m.metricsData = msg.metrics
		m.evidence = msg.evidence
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" ACE Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	interactionsPanel := m.renderInteractionsPanel()
	metricsPanel := m.renderMetricsPanel()
	evidencePanel := m.renderEvidencePanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		interactionsPanel = m.applyPanelStyle(panelInteractions, interactionsPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		evidencePanel = m.applyPanelStyle(panelEvidence, evidencePanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, interactionsPanel, metricsPanel, evidencePanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		interactionsPanel = m.applyPanelStyle(panelInteractions, interactionsPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		evidencePanel = m.applyPanelStyle(panelEvidence, evidencePanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, interactionsPanel, metricsPanel, evidencePanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderInteractionsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Interactions"))
	b.WriteString("\n")

	if len(m.interactions) == 0 {
		b.WriteString("  No interactions recorded.")
		return b.String()
	}

	for modType, count := range m.typeCounts {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", modType, count))
	}
	b.WriteString("\n")

	shown := m.interactions
	if len(shown) > 8 {
		shown = shown[len(shown)-8:]
	}
	for _, rec := range shown {
		conf := styleForConfidence(rec.confidence).Render(fmt.Sprintf("%.2f", rec.confidence))
		b.WriteString(fmt.Sprintf("  %-10s %-10s %s\n", shortID(rec.id), rec.modType, conf))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d", len(m.interactions)))
	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Recorded", md.interactionsRecorded},
		{"Transitions", md.transitionsDetected},
		{"Flaky", md.flakyDetected},
		{"Promoted", md.learningsPromoted},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return b.String()
}

func (m dashboardModel) renderEvidencePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Evidence"))
	b.WriteString("\n")

	if len(m.evidence) == 0 {
		b.WriteString("  No validation evidence.")
		return b.String()
	}

	shown := m.evidence
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, e := range shown {
		kind := styleForKind(e.kind).Render(fmt.Sprintf("%-15s", e.kind))
		b.WriteString(fmt.Sprintf("  %s %s %.2f\n", shortID(e.id), kind, e.weight))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d", len(m.evidence)))
	return b.String()
}

func styleForConfidence(c float64) lipgloss.Style {
	switch {
	case c >= 0.6:
		return confidenceHigh
	case c >= 0.3:
		return confidenceMid
	default:
		return confidenceLow
	}
}

func styleForKind(kind string) lipgloss.Style {
	switch kind {
	case string(models.EvidenceTestTransition):
		return kindTransition
	case string(models.EvidenceRuntimeError):
		return kindRuntime
	case string(models.EvidenceCodeQuality):
		return kindQuality
	default:
		return lipgloss.NewStyle()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func loadData() tea.Msg {
	ctx := context.Background()
	result := dataLoadedMsg{
		typeCounts: make(map[string]int),
	}

	if Records != nil {
		records, err := Records.ListInteractions(ctx, 0)
		if err != nil {
			result.err = fmt.Errorf("loading interactions: %w", err)
			return result
		}
		for _, rec := range records {
			result.typeCounts[string(rec.Derived.ModificationType)]++
			result.interactions = append(result.interactions, interactionSnapshot{
				id:         rec.ID,
				modType:    string(rec.Derived.ModificationType),
				confidence: rec.Derived.Confidence,
				status:     string(rec.Status),
			})
		}

		evidence, err := Records.ListEvidence(ctx, "")
		if err != nil {
			result.err = fmt.Errorf("loading evidence: %w", err)
			return result
		}
		for _, e := range evidence {
			result.evidence = append(result.evidence, evidenceSnapshot{
				id:     e.EvidenceID(),
				kind:   string(e.Kind()),
				weight: e.ValidationWeight(),
			})
		}
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			interactionsRecorded: metrics.InteractionsRecorded,
			transitionsDetected:  metrics.TransitionsDetected,
			flakyDetected:        metrics.FlakyDetected,
			learningsPromoted:    metrics.LearningsPromoted,
			eventCount:           metrics.EventCount,
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for interactions and evidence",
	Long: `Launch an interactive terminal dashboard showing recorded
interactions, engine metrics, and validation evidence.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Records == nil {
			return fmt.Errorf("record store not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
