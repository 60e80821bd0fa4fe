/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// getFavicon points the page icon at the session's own avatar badge.
func getFavicon(cfg *Config) string {
	return `<link rel="icon" type="image/png" sizes="64x64" href="` + strings.TrimSuffix(cfg.prefix, "/") + `/favicon.png">
	<meta name="theme-color" content="#ffffff">`
}

func serveFavicon(cfg *Config, page *Page, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		name := page.UserName()
		if name == "" {
			http.NotFound(w, r)

			return
		}

		data, err := fallbackAvatarPNG(name)
		if err != nil {
			http.Error(w, "avatar unavailable", http.StatusInternalServerError)
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}
