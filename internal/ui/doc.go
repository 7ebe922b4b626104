// Package ui implements the local control surface using bubbletea's Elm architecture.
//
// The screen shows a tab bar (viewing tab highlighted, playing tab marked), the viewing tab's tracks in a
// [list.Model], and a status line with the current track, elapsed time and the repeat flag.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. Hub events flow in through a subscription read one event per command, the same way the model waits on
// any other channel; every event re-reads the published engine state, so the screen never holds state of its own.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, space, n/p, tab) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
