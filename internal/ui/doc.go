// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [LoginView] : username and password form; credentials are checked by the backend
//  2. [SectionsView] : the sections the signed-in user may open
//  3. [RecordsView] : the records of one section rendered as a table
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Backend calls run as [tea.Cmd]s so the interface never blocks on the network.
//
// A failed login keeps the form with the username filled in and shows "invalid credentials".
package ui
