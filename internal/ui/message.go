package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/jukebox/internal/hub"
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
	MsgEvent MsgKind = iota
	MsgStreamClosed
	MsgCommandDone
)

// eventMsg is the constructor for [MsgEvent]
func eventMsg(ev hub.Event) Msg {
	return Msg{kind: MsgEvent, data: ev}
}

// streamClosedMsg is the constructor for [MsgStreamClosed]
func streamClosedMsg() Msg {
	return Msg{kind: MsgStreamClosed}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(action string, err error) Msg {
	return Msg{
		kind: MsgCommandDone,
		data: struct {
			action string
			err    error
		}{action, err},
	}
}
