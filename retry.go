/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import "time"

const defaultReconnectDelay = 3 * time.Second

// retryTimer holds at most one pending reconnect. It is owned by the
// client loop; only the fire callback runs elsewhere, and it must hand the
// generation back to the loop, which checks it with due.
type retryTimer struct {
	timer *time.Timer
	gen   uint64
}

// schedule replaces any pending reconnect with one that calls fire(gen)
// after d.
func (r *retryTimer) schedule(d time.Duration, fire func(gen uint64)) uint64 {
	r.cancel()

	gen := r.gen
	r.timer = time.AfterFunc(d, func() { fire(gen) })

	return gen
}

// cancel reports whether a reconnect was pending.
func (r *retryTimer) cancel() bool {
	if r.timer == nil {
		return false
	}

	r.timer.Stop()
	r.timer = nil
	r.gen++

	return true
}

// due consumes the pending reconnect if gen still refers to it.
func (r *retryTimer) due(gen uint64) bool {
	if r.timer == nil || gen != r.gen {
		return false
	}

	r.timer = nil
	r.gen++

	return true
}

func (r *retryTimer) pending() bool {
	return r.timer != nil
}
