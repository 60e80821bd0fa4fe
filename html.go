/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

const refreshSeconds = 2

const lobbyCSS = `body{font-family:system-ui,sans-serif;margin:2rem;}` +
	`.status{display:inline-block;padding:.25rem .75rem;border-radius:1rem;}` +
	`.status.connecting{background:#fff3cd;}.status.connected{background:#d1e7dd;}.status.disconnected{background:#f8d7da;}` +
	`.user-card,.player-item{display:flex;align-items:center;gap:.75rem;margin:.5rem 0;}` +
	`.player-avatar,.user-avatar{width:48px;height:48px;border-radius:50%;}` +
	`.empty-message{color:#777;font-style:italic;}`

func writeAvatar(b *strings.Builder, class string, row RowView) {
	fmt.Fprintf(b, `<img class="%s" src="%s" alt="%s">`,
		class,
		html.EscapeString(row.Avatar),
		html.EscapeString(row.Alt),
	)
}

// renderLobbyPage lays out the status indicator, the user card and the
// roster.
func renderLobbyPage(cfg *Config, view PageView) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	b.WriteString(`<meta charset="utf-8">`)
	fmt.Fprintf(&b, `<meta http-equiv="refresh" content="%d">`, refreshSeconds)
	b.WriteString(getFavicon(cfg))
	b.WriteString(`<style>` + lobbyCSS + `</style>`)
	b.WriteString(`<title>Lobby</title></head><body>`)

	fmt.Fprintf(&b, `<div id="status" class="%s">%s</div>`,
		html.EscapeString(view.StatusClass),
		html.EscapeString(view.StatusLabel),
	)

	b.WriteString(`<div class="user-card">`)
	if view.User.Avatar != "" {
		writeAvatar(&b, "user-avatar", view.User)
	}
	fmt.Fprintf(&b, `<div id="userName">%s</div></div>`, html.EscapeString(view.User.Name))

	b.WriteString(`<div id="playersList">`)
	if view.Empty {
		fmt.Fprintf(&b, `<div class="empty-message">%s</div>`, html.EscapeString(view.EmptyText))
	}
	for _, player := range view.Players {
		b.WriteString(`<div class="player-item">`)
		writeAvatar(&b, "player-avatar", player)
		fmt.Fprintf(&b, `<div class="player-name">%s</div></div>`, html.EscapeString(player.Name))
	}
	b.WriteString(`</div>`)

	b.WriteString(`</body></html>`)

	return b.String()
}

func serveLobbyPage(cfg *Config, page *Page, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		body := renderLobbyPage(cfg, page.Snapshot())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		securityHeaders(cfg, w)

		written, err := w.Write([]byte(body))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Lobby page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
