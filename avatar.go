/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/time/rate"
)

const (
	defaultAvatarURL        = "https://api.dicebear.com/7.x"
	defaultAvatarStyle      = "adventurer"
	defaultAvatarBackground = "b6e3f4,c0aede,d1d4f9"

	avatarSize      = 64
	avatarFontSize  = 26
	avatarBurst     = 8
	maxAvatarBytes  = 1 << 20
	pngDataURLStart = "data:image/png;base64,"
)

var initialsFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

// hashSeed folds s into a 32-bit signed accumulator (h = h*31 + unit over
// its UTF-16 code units, wrapping) and returns the absolute value.
func hashSeed(s string) uint32 {
	var h int32

	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(unit)
	}

	if h < 0 {
		return uint32(-int64(h))
	}

	return uint32(h)
}

// fallbackColor derives the badge hue [0,360) and saturation [60,79].
func fallbackColor(seed string) (hue, sat int) {
	h := hashSeed(seed)

	return int(h % 360), 60 + int(h%20)
}

// initials upper-cases the first letter of up to two words of seed.
func initials(seed string) string {
	var b strings.Builder

	for i, word := range strings.Fields(seed) {
		if i == 2 {
			break
		}
		for _, r := range word {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
	}

	return b.String()
}

func fallbackAvatarPNG(seed string) ([]byte, error) {
	hue, sat := fallbackColor(seed)

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.SetColor(colorful.Hsl(float64(hue), float64(sat)/100, 0.5).Clamped())
	dc.Fill()

	if text := initials(seed); text != "" {
		f, err := initialsFont()
		if err != nil {
			return nil, fmt.Errorf("parse initials font: %w", err)
		}

		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    avatarFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("initials face: %w", err)
		}
		defer face.Close()

		dc.SetFontFace(face)
		dc.SetRGBA(1, 1, 1, 0.92)
		dc.DrawStringAnchored(text, avatarSize/2, avatarSize/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// fallbackAvatar is the initials badge for seed as a PNG data URL. It
// returns an empty string only if rendering itself fails.
func fallbackAvatar(seed string) string {
	data, err := fallbackAvatarPNG(seed)
	if err != nil {
		return ""
	}

	return pngDataURLStart + base64.StdEncoding.EncodeToString(data)
}

// AvatarResolver renders fallback badges and upgrades them with
// illustrated avatars from a remote service.
type AvatarResolver struct {
	client     *http.Client
	baseURL    string
	style      string
	background string
	remote     bool
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

func newAvatarResolver(cfg *Config) *AvatarResolver {
	return &AvatarResolver{
		client:     &http.Client{Timeout: cfg.avatarTimeout},
		baseURL:    strings.TrimSuffix(cfg.avatarURL, "/"),
		style:      cfg.avatarStyle,
		background: cfg.avatarBackground,
		remote:     !cfg.noRemoteAvatars,
		limiter:    rate.NewLimiter(rate.Limit(cfg.avatarRate), avatarBurst),
		logger:     cfg.logger.With().Str("component", "avatars").Logger(),
	}
}

func (a *AvatarResolver) avatarURL(seed string) string {
	return fmt.Sprintf("%s/%s/svg?seed=%s&backgroundColor=%s&radius=50",
		a.baseURL,
		url.PathEscape(a.style),
		escapeComponent(seed),
		a.background,
	)
}

// Resolve fetches the remote avatar for seed as a data URL.
func (a *AvatarResolver) Resolve(ctx context.Context, seed string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.avatarURL(seed), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s", errAvatarStatus, resp.Status)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %q", errAvatarType, resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxAvatarBytes {
		return "", errAvatarTooLarge
	}

	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

// Render sets img to the fallback badge right away, then replaces it with
// the remote avatar if one arrives while img is still attached.
func (a *AvatarResolver) Render(ctx context.Context, img *Image, seed string) {
	img.SetSrc(fallbackAvatar(seed))

	if !a.remote {
		return
	}

	go func() {
		src, err := a.Resolve(ctx, seed)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Debug().Err(err).Str("seed", seed).Msg("keeping fallback avatar")
			}

			return
		}

		if !img.SetSrc(src) {
			a.logger.Debug().Str("seed", seed).Msg("dropped avatar for removed row")
		}
	}()
}

// escapeComponent escapes s like a URI component, spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
