package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wpx/internal/tasks"
)

var (
	_ tea.Msg = progressMsg{}
	_ tea.Msg = runFinishedMsg{}
)

// progressMsg carries one update from the engine.
type progressMsg tasks.ProgressUpdate

// runFinishedMsg is sent once the progress channel is closed and the run has returned.
type runFinishedMsg struct {
	report *tasks.RunReport
	err    error
}

// waitForProgress blocks on the next update, or on the run result once updates are exhausted.
func waitForProgress(updates <-chan tasks.ProgressUpdate, finished <-chan struct{}, result func() runFinishedMsg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			<-finished
			return result()
		}
		return progressMsg(update)
	}
}
