/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"sync"
)

const emptyRosterText = "No players in lobby"

// Image is an avatar image element. Once detached from the page it
// ignores further writes.
type Image struct {
	mu       sync.RWMutex
	src      string
	alt      string
	detached bool
}

func newImage(alt string) *Image {
	return &Image{alt: alt}
}

// SetSrc reports whether the write landed on an attached image.
func (i *Image) SetSrc(src string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.detached {
		return false
	}

	i.src = src

	return true
}

func (i *Image) Src() string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.src
}

func (i *Image) Alt() string {
	return i.alt
}

func (i *Image) detach() {
	i.mu.Lock()
	i.detached = true
	i.mu.Unlock()
}

// Row is one roster entry.
type Row struct {
	Avatar *Image
	Name   string
}

type avatarRenderer interface {
	Render(ctx context.Context, img *Image, seed string)
}

// Page holds everything the lobby view shows: the status indicator, the
// current user's card and the player roster.
type Page struct {
	mu      sync.RWMutex
	avatars avatarRenderer

	status     ConnState
	userName   string
	userAvatar *Image
	rows       []*Row

	// cancels avatar upgrades started for the current roster
	cancelRoster context.CancelFunc
}

func newPage(avatars avatarRenderer) *Page {
	return &Page{
		avatars: avatars,
		status:  StateConnecting,
	}
}

func (p *Page) SetStatus(s ConnState) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *Page) Status() ConnState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status
}

// SetUser renders the current user's card.
func (p *Page) SetUser(ctx context.Context, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.userAvatar != nil {
		p.userAvatar.detach()
	}

	p.userName = name
	p.userAvatar = newImage(name)
	p.avatars.Render(ctx, p.userAvatar, name)
}

func (p *Page) UserName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.userName
}

// RenderRoster replaces the roster with players, in order. Avatar upgrades
// still running for the previous roster are cancelled and their images
// detached, so late results are dropped.
func (p *Page) RenderRoster(ctx context.Context, players []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearRosterLocked()

	if len(players) == 0 {
		return
	}

	rosterCtx, cancel := context.WithCancel(ctx)
	p.cancelRoster = cancel

	rows := make([]*Row, 0, len(players))
	for _, name := range players {
		img := newImage(name)
		p.avatars.Render(rosterCtx, img, name)

		rows = append(rows, &Row{Avatar: img, Name: name})
	}

	p.rows = rows
}

func (p *Page) clearRosterLocked() {
	if p.cancelRoster != nil {
		p.cancelRoster()
		p.cancelRoster = nil
	}

	for _, row := range p.rows {
		row.Avatar.detach()
	}

	p.rows = nil
}

// Close stops every pending avatar upgrade.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearRosterLocked()

	if p.userAvatar != nil {
		p.userAvatar.detach()
	}
}

type RowView struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Alt    string `json:"alt"`
}

type PageView struct {
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	StatusClass string    `json:"status_class"`
	User        RowView   `json:"user"`
	Players     []RowView `json:"players"`
	Empty       bool      `json:"empty"`
	EmptyText   string    `json:"empty_text,omitempty"`
}

// Snapshot copies the page for rendering.
func (p *Page) Snapshot() PageView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	view := PageView{
		Status:      p.status.String(),
		StatusLabel: p.status.Label(),
		StatusClass: p.status.Class(),
		User:        RowView{Name: p.userName, Alt: p.userName},
		Players:     make([]RowView, 0, len(p.rows)),
		Empty:       len(p.rows) == 0,
	}

	if p.userAvatar != nil {
		view.User.Avatar = p.userAvatar.Src()
	}

	for _, row := range p.rows {
		view.Players = append(view.Players, RowView{
			Name:   row.Name,
			Avatar: row.Avatar.Src(),
			Alt:    row.Avatar.Alt(),
		})
	}

	if view.Empty {
		view.EmptyText = emptyRosterText
	}

	return view
}
