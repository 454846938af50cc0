package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/fintrack/internal/state"
)

// Notifier bridges controller renders into the bubbletea loop. Renders may
// arrive from several goroutines; only the newest snapshot is kept and the
// program is woken once per burst.
type Notifier struct {
	mu     sync.Mutex
	latest state.Snapshot
	have   bool
	wake   chan struct{}
}

// NewNotifier returns an idle notifier.
func NewNotifier() *Notifier {
	return &Notifier{wake: make(chan struct{}, 1)}
}

// Render implements state.Renderer.
func (n *Notifier) Render(s state.Snapshot) {
	n.mu.Lock()
	if !n.have || s.Version >= n.latest.Version {
		n.latest = s
		n.have = true
	}
	n.mu.Unlock()
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until a snapshot is available and delivers it as a message.
func (n *Notifier) Wait() tea.Cmd {
	return func() tea.Msg {
		<-n.wake
		n.mu.Lock()
		defer n.mu.Unlock()
		return snapshotMsg(n.latest)
	}
}

type snapshotMsg state.Snapshot
