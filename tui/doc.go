// Package tui is a terminal host for the bridge.
//
// Widgets are layout nodes drawn onto a cell Canvas with lipgloss styles.
// Window implements the bridge window: it owns the root container, reserves
// the bottom line for a status bar, overlays diagnostics and keeps a focus
// ring over focusable widgets. Model adapts a Window to bubbletea, forwarding
// key presses and terminal resizes to the UI queue.
//
// Every widget and Window method except Frame and Size must run on the UI
// queue.
package tui
