package main

import (
	"context"
	"encoding/base64"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`

func TestHashSeed(t *testing.T) {
	tests := []struct {
		seed string
		want uint32
	}{
		{"", 0},
		{"a", 97},
		{"hello", 99162322},
		{"Swift Rook", 1768794362},
		{"polygenelubricants", 2147483648}, // accumulator ends at MinInt32
		{"😀", 1772899},
		{"Ünïcode Näme", 1623937348},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, hashSeed(tt.seed), "hashSeed(%q)", tt.seed)
		assert.Equal(t, hashSeed(tt.seed), hashSeed(tt.seed), "hashSeed(%q) not deterministic", tt.seed)
	}
}

func TestFallbackColor_Ranges(t *testing.T) {
	for i := 0; i < 500; i++ {
		seed := generateName() + strings.Repeat("x", i%7)
		hue, sat := fallbackColor(seed)

		h := hashSeed(seed)
		assert.Equal(t, int(h%360), hue)
		assert.Equal(t, 60+int(h%20), sat)
		assert.GreaterOrEqual(t, hue, 0)
		assert.Less(t, hue, 360)
		assert.GreaterOrEqual(t, sat, 60)
		assert.LessOrEqual(t, sat, 79)
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"Swift Rook":     "SR",
		"  alice  ":      "A",
		"a b c":          "AB",
		"":               "",
		"   ":            "",
		"élan\tvital x":  "ÉV",
		"Fearless  Wolf": "FW",
	}

	for seed, want := range tests {
		assert.Equal(t, want, initials(seed), "initials(%q)", seed)
	}
}

func decodeAvatar(t *testing.T, src string) (width, height int, at func(x, y int) (r, g, b, a uint8)) {
	t.Helper()

	require.True(t, strings.HasPrefix(src, pngDataURLStart), "not a png data url: %.40s", src)

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(src, pngDataURLStart))
	require.NoError(t, err)

	img, err := png.Decode(strings.NewReader(string(data)))
	require.NoError(t, err)

	bounds := img.Bounds()

	return bounds.Dx(), bounds.Dy(), func(x, y int) (uint8, uint8, uint8, uint8) {
		r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
		return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)
	}
}

func TestFallbackAvatar_DrawsColoredBadge(t *testing.T) {
	for _, seed := range []string{"Swift Rook", "", "Ünïcode Näme"} {
		src := fallbackAvatar(seed)
		assert.Equal(t, src, fallbackAvatar(seed), "fallback for %q not deterministic", seed)

		w, h, at := decodeAvatar(t, src)
		assert.Equal(t, avatarSize, w)
		assert.Equal(t, avatarSize, h)

		_, _, _, cornerAlpha := at(0, 0)
		assert.Zero(t, cornerAlpha, "corner of %q should be outside the circle", seed)

		hue, sat := fallbackColor(seed)
		wr, wg, wb := colorful.Hsl(float64(hue), float64(sat)/100, 0.5).Clamped().RGB255()

		// inside the circle, clear of the initials
		for _, p := range [][2]int{{32, 6}, {6, 32}} {
			r, g, b, a := at(p[0], p[1])
			assert.Equal(t, uint8(255), a)
			assert.InDelta(t, wr, r, 2, "red at %v for %q", p, seed)
			assert.InDelta(t, wg, g, 2, "green at %v for %q", p, seed)
			assert.InDelta(t, wb, b, 2, "blue at %v for %q", p, seed)
		}
	}
}

func TestFallbackAvatar_DiffersBySeed(t *testing.T) {
	assert.NotEqual(t, fallbackAvatar("Swift Rook"), fallbackAvatar("Fearless Wolf"))
}

func newTestResolver(t *testing.T, handler http.HandlerFunc) *AvatarResolver {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.avatarURL = srv.URL + "/7.x/"
	cfg.avatarRate = 1000

	return newAvatarResolver(cfg)
}

func TestAvatarResolver_Resolve(t *testing.T) {
	a := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/7.x/adventurer/svg", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "seed=Swift%20Rook")
		assert.Equal(t, "Swift Rook", r.URL.Query().Get("seed"))
		assert.Equal(t, defaultAvatarBackground, r.URL.Query().Get("backgroundColor"))
		assert.Equal(t, "50", r.URL.Query().Get("radius"))
		assert.Equal(t, "image/svg+xml", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
		_, _ = w.Write([]byte(testSVG))
	})

	src, err := a.Resolve(context.Background(), "Swift Rook")
	require.NoError(t, err)
	assert.Equal(t, "data:image/svg+xml;base64,"+base64.StdEncoding.EncodeToString([]byte(testSVG)), src)
}

func TestAvatarResolver_ResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			want: errAvatarStatus,
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html></html>"))
			},
			want: errAvatarType,
		},
		{
			name: "too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/svg+xml")
				_, _ = w.Write(make([]byte, maxAvatarBytes+10))
			},
			want: errAvatarTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestResolver(t, tt.handler)

			_, err := a.Resolve(context.Background(), "Bold Fox")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAvatarResolver_ResolveNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfg := testConfig()
	cfg.avatarURL = srv.URL

	_, err := newAvatarResolver(cfg).Resolve(context.Background(), "Bold Fox")
	assert.Error(t, err)
}

func TestAvatarResolver_RenderUpgradesAfterFallback(t *testing.T) {
	release := make(chan struct{})
	a := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(testSVG))
	})

	img := newImage("Swift Rook")
	a.Render(context.Background(), img, "Swift Rook")

	assert.Equal(t, fallbackAvatar("Swift Rook"), img.Src())

	close(release)

	require.Eventually(t, func() bool {
		return strings.HasPrefix(img.Src(), "data:image/svg+xml;base64,")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAvatarResolver_RenderKeepsFallbackOnFailure(t *testing.T) {
	var hits atomic.Int32
	a := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	img := newImage("Bold Fox")
	a.Render(context.Background(), img, "Bold Fox")

	require.Eventually(t, func() bool { return hits.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	fallback := fallbackAvatar("Bold Fox")
	assert.Never(t, func() bool { return img.Src() != fallback }, 150*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, int32(1), hits.Load(), "remote fetch must not be retried")
}

func TestAvatarResolver_RenderSkipsDetachedImage(t *testing.T) {
	release := make(chan struct{})
	var served atomic.Bool
	a := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(testSVG))
		served.Store(true)
	})

	img := newImage("Quick Tiger")
	a.Render(context.Background(), img, "Quick Tiger")
	fallback := img.Src()

	img.detach()
	close(release)

	require.Eventually(t, served.Load, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return img.Src() != fallback }, 150*time.Millisecond, 10*time.Millisecond)
}

func TestAvatarResolver_RenderLocalOnly(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.avatarURL = srv.URL
	cfg.noRemoteAvatars = true

	img := newImage("Wise Wolf")
	newAvatarResolver(cfg).Render(context.Background(), img, "Wise Wolf")

	assert.Equal(t, fallbackAvatar("Wise Wolf"), img.Src())
	assert.Never(t, func() bool { return hits.Load() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
