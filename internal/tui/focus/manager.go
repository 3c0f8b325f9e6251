package focus

// Mode decides which keys reach the global key map
type Mode int

const (
	// ModeNavigation passes every key to the global bindings
	ModeNavigation Mode = iota
	// ModeInput routes keys to a text field
	ModeInput
)

// Manager tracks the focus mode for the root model
type Manager struct {
	mode Mode
}

// NewManager starts in navigation mode
func NewManager() *Manager {
	return &Manager{mode: ModeNavigation}
}

// SetMode changes the focus mode
func (m *Manager) SetMode(mode Mode) {
	m.mode = mode
}

// Mode returns the current focus mode
func (m *Manager) Mode() Mode {
	return m.mode
}

// IsInputMode reports whether a text field has focus
func (m *Manager) IsInputMode() bool {
	return m.mode == ModeInput
}

// Follow switches to input mode while typing is true, navigation otherwise
func (m *Manager) Follow(typing bool) {
	if typing {
		m.mode = ModeInput
	} else {
		m.mode = ModeNavigation
	}
}
