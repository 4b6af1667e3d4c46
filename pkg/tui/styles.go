package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPurple      = lipgloss.Color("#7D56F4")
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color("#626262")
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorMagenta     = lipgloss.Color("#C678DD")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
	ColorOrange      = lipgloss.Color("#D19A66")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	ScoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorYellow)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)
)

// Goal list styles
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	CompleteStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	InProgressStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	IncompleteStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	EternalStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	ProgressTextStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	IndexStyle = lipgloss.NewStyle().
			Foreground(ColorGrayDim)
)

// Section header styles, one per goal kind.
var (
	SimpleHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorBlue)

	EternalHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMagenta)

	ChecklistHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorOrange)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)
)

// Search styles
var (
	ColorSearchRowBg  = lipgloss.Color("#1E1A2E")
	ColorSearchCharBg = lipgloss.Color("#2E2545")

	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchRowStyle = lipgloss.NewStyle().
			Background(ColorSearchRowBg)

	SearchCharStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple).
			Background(ColorSearchCharBg)

	SearchCharSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPurple).
				Background(ColorSelectionBg)

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

// Progress bar
var (
	BarFilledStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	BarEmptyStyle  = lipgloss.NewStyle().Foreground(ColorGrayDim)
)

// Status icons
const (
	IconComplete   = "✓"
	IconInProgress = "◐"
	IconIncomplete = "○"
	IconEternal    = "∞"
	IconBarFilled  = "█"
	IconBarEmpty   = "░"
)
