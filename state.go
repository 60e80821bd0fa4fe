/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import "strings"

// ConnState is the lobby connection state shown by the status indicator.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Label is the status indicator text, e.g. "Connected".
func (s ConnState) Label() string {
	name := s.String()

	return strings.ToUpper(name[:1]) + name[1:]
}

// Class is the status indicator style class.
func (s ConnState) Class() string {
	return "status " + s.String()
}
