package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/izaxon/codicent-cli/internal/auth"
	"github.com/izaxon/codicent-cli/internal/browser"
)

// ApproveModel asks the user to approve a pending device authorization.
// Enter accepts and opens the verification page in the browser; esc cancels.
// Cancellation is a normal outcome: the flow ends with no token and no error.
type ApproveModel struct {
	authz    auth.DeviceAuthorization
	accepted bool
	openErr  error
	// OpenBrowser is called with the approval URL when the user accepts.
	// It is exported so that tests can replace the real browser launch.
	OpenBrowser func(string) error
}

// NewApproveModel creates the approval prompt model.
func NewApproveModel(authz auth.DeviceAuthorization) ApproveModel {
	return ApproveModel{
		authz:       authz,
		OpenBrowser: browser.Open,
	}
}

// Accepted reports whether the user chose to continue.
func (m ApproveModel) Accepted() bool {
	return m.accepted
}

func (m ApproveModel) Init() tea.Cmd {
	return nil
}

func (m ApproveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "enter", "y":
		m.accepted = true
		if m.OpenBrowser != nil {
			// Best effort: the code and URL stay on screen, so a failed
			// launch still lets the user open the page manually.
			m.openErr = m.OpenBrowser(m.authz.ApprovalURL())
		}
		return m, tea.Quit
	case "esc", "n", "q", "ctrl+c":
		m.accepted = false
		return m, tea.Quit
	}
	return m, nil
}

func (m ApproveModel) View() string {
	s := "Codicent authentication\n\n"
	s += fmt.Sprintf("  Visit:      %s\n", m.authz.VerificationURI)
	s += fmt.Sprintf("  Enter code: %s\n\n", m.authz.UserCode)
	s += "Press enter to open the browser and continue, esc to cancel.\n"
	if m.openErr != nil {
		s += fmt.Sprintf("\nCould not open the browser: %v\nOpen the link above manually.\n", m.openErr)
	}
	return s
}

// RunApprove displays the approval prompt and blocks until the user decides.
// Returns true when the user accepted.
func RunApprove(authz auth.DeviceAuthorization) (bool, error) {
	p := tea.NewProgram(NewApproveModel(authz), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	model, ok := final.(ApproveModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type from approval prompt")
	}
	return model.Accepted(), nil
}
