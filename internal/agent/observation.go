package agent

import (
	"bytes"
	"image"
	"image/png"
	"time"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	"github.com/v0xg/shopagent/internal/browser"
)

// Observation is what the loop learns after executing a primitive: the
// outcome text with the current URL appended, plus a viewport screenshot
// when the session can still produce one.
type Observation struct {
	Text       string
	Screenshot []byte // PNG, nil when the session is gone
	URL        string
}

// Capturer produces Observations. It remembers the last URL it saw so a
// dying session still yields a usable URL rather than none at all.
type Capturer struct {
	session browser.Session
	log     zerolog.Logger

	settle   time.Duration
	maxWidth uint
	lastURL  string
}

// NewCapturer uses a 1s settle delay so rendering and layout stabilize
// before the screenshot, and downscales screenshots to 1000px wide: the
// vision APIs reject oversized images.
func NewCapturer(session browser.Session, log zerolog.Logger) *Capturer {
	return &Capturer{
		session:  session,
		log:      log.With().Str("component", "observe").Logger(),
		settle:   time.Second,
		maxWidth: 1000,
	}
}

// Capture waits for the page to settle, snapshots it, and merges the
// outcome text with the current URL. A failed screenshot is logged and
// omitted; it never fails the step. The URL line is always appended to
// the existing text, newline-separated, never overwriting it.
func (c *Capturer) Capture(outcomeText string) Observation {
	time.Sleep(c.settle)

	obs := Observation{Text: outcomeText}

	shot, err := c.session.Screenshot()
	if err != nil {
		c.log.Warn().Err(err).Msg("screenshot unavailable, continuing without one")
	} else {
		obs.Screenshot = downscale(shot, c.maxWidth)
	}

	url, err := c.session.CurrentURL()
	if err != nil {
		url = c.lastURL
	} else {
		c.lastURL = url
	}
	obs.URL = url

	urlInfo := "Current URL: " + url
	if obs.Text != "" {
		obs.Text += "\n" + urlInfo
	} else {
		obs.Text = urlInfo
	}
	return obs
}

// downscale shrinks a PNG to at most maxWidth, preserving aspect ratio.
// Anything that doesn't decode passes through untouched.
func downscale(data []byte, maxWidth uint) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	if uint(img.Bounds().Dx()) <= maxWidth {
		return data
	}
	resized := resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return data
	}
	return buf.Bytes()
}
