// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is the host's console for a running session:
//  1. [QueueView] : The queue in singing order, with estimated waits
//  2. [LeaderboardView] : Singers ranked by average rating
//  3. [SingersView] : The turn order with performed and queued counts
//  4. [RateView] : Rate the selected song before it is completed
//  5. [ConfirmDeleteView] : Confirm removing a song from the queue
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every committed command publishes on the session bus; the model listens on a buffered channel and reloads,
// so changes made by any command on the session show up without polling.
//
// Keyboard navigation uses vim-style bindings (j/k, K/J to move, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
