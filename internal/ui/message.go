package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/karaoke/internal/events"
	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoaded MsgKind = iota
	MsgChanged
	MsgCommandDone
)

type loaded struct {
	report  *formatter.Report
	singers []*models.Singer
	err     error
}

type commandDone struct {
	status string
	err    error
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(report *formatter.Report, singers []*models.Singer, err error) Msg {
	return Msg{kind: MsgLoaded, data: loaded{report: report, singers: singers, err: err}}
}

// changedMsg is the constructor for [MsgChanged]
func changedMsg(kind events.Kind) Msg {
	return Msg{kind: MsgChanged, data: kind}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(status string, err error) Msg {
	return Msg{kind: MsgCommandDone, data: commandDone{status: status, err: err}}
}
