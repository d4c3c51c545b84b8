package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gestaopro/internal/models"
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
	MsgLoginResult MsgKind = iota
	MsgRecordsFetched
)

type recordsData struct {
	section models.Permission
	records []models.Record
	err     error
}

// loginResultMsg is the constructor for [MsgLoginResult]
func loginResultMsg(ok bool) Msg {
	return Msg{kind: MsgLoginResult, data: ok}
}

// recordsFetchedMsg is the constructor for [MsgRecordsFetched]
func recordsFetchedMsg(section models.Permission, records []models.Record, err error) Msg {
	return Msg{kind: MsgRecordsFetched, data: recordsData{section: section, records: records, err: err}}
}
