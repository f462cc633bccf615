package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// LaunchOptions configures the one-time browser bootstrap. This is setup,
// not control-loop behavior: nothing here changes once the session exists.
type LaunchOptions struct {
	Headless   bool
	Width      int
	Height     int
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
}

// RodSession implements Session on top of go-rod.
type RodSession struct {
	browser *rod.Browser
	page    *rod.Page
}

// Launch starts Chromium and opens a blank page. The storefront renders
// best in a tall narrow viewport, hence the 1000x1300 default.
func Launch(opts LaunchOptions) (*RodSession, error) {
	if opts.Width == 0 {
		opts.Width = 1000
	}
	if opts.Height == 0 {
		opts.Height = 1300
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).
		Headless(opts.Headless).
		Set("force-device-scale-factor", "1").
		Set("disable-pdf-viewer")
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	return &RodSession{browser: b, page: page}, nil
}

func (s *RodSession) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return s.page.WaitLoad()
}

func (s *RodSession) Find(d Descriptor) ([]Element, error) {
	var (
		els rod.Elements
		err error
	)
	switch d.Kind {
	case BySelector:
		els, err = s.page.Elements(d.Value)
	case ByButton:
		els, err = s.page.ElementsX(buttonXPath(d.Value))
	case ByLink:
		els, err = s.page.ElementsX(linkXPath(d.Value))
	default:
		els, err = s.page.ElementsX(textXPath(d.Value))
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", d, err)
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (s *RodSession) Type(text string) error {
	return s.page.InsertText(text)
}

func (s *RodSession) Submit() error {
	return s.page.Keyboard.Type(input.Enter)
}

func (s *RodSession) Screenshot() ([]byte, error) {
	return s.page.Screenshot(false, nil)
}

func (s *RodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Health evaluates a trivial expression on the page. Failure means the
// CDP connection is gone, which no primitive can recover from.
func (s *RodSession) Health() error {
	if _, err := s.page.Eval(`() => document.readyState`); err != nil {
		return &DriverError{Err: err}
	}
	return nil
}

func (s *RodSession) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Interactable() (bool, error) {
	// rod reports covered/zero-size elements as errors here; the locator
	// treats those as not-yet-found, so they map to false rather than
	// a failure.
	if _, err := e.el.Interactable(); err != nil {
		return false, nil
	}
	return true, nil
}

func (e *rodElement) ScriptClick() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}

func textXPath(text string) string {
	return fmt.Sprintf(`//*[contains(normalize-space(text()), %s)]`, xpathLiteral(text))
}

func buttonXPath(label string) string {
	lit := xpathLiteral(label)
	return fmt.Sprintf(
		`//button[contains(normalize-space(.), %s)]`+
			` | //input[(@type="submit" or @type="button") and contains(@value, %s)]`+
			` | //*[@role="button" and contains(normalize-space(.), %s)]`,
		lit, lit, lit)
}

func linkXPath(text string) string {
	return fmt.Sprintf(`//a[contains(normalize-space(.), %s)]`, xpathLiteral(text))
}

// xpathLiteral quotes a string for embedding in an XPath expression.
// XPath 1.0 has no escape syntax, so strings containing both quote kinds
// need the concat() form.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return "concat(" + strings.Join(parts, `, '"', `) + ")"
}
