package browser

import (
	"errors"
	"fmt"
)

// Kind selects how a Descriptor is matched against the DOM.
type Kind int

const (
	// ByText matches any element whose visible text contains the value.
	ByText Kind = iota
	// ByButton matches buttons (and button-like inputs) by label.
	ByButton
	// ByLink matches anchor elements by their text.
	ByLink
	// BySelector matches by raw CSS selector.
	BySelector
)

// Descriptor identifies a page element semantically: a piece of visible
// text, a button label, a link text, or a CSS selector.
type Descriptor struct {
	Kind  Kind
	Value string
}

func Text(s string) Descriptor     { return Descriptor{Kind: ByText, Value: s} }
func Button(s string) Descriptor   { return Descriptor{Kind: ByButton, Value: s} }
func Link(s string) Descriptor     { return Descriptor{Kind: ByLink, Value: s} }
func Selector(s string) Descriptor { return Descriptor{Kind: BySelector, Value: s} }

func (d Descriptor) String() string {
	switch d.Kind {
	case ByButton:
		return fmt.Sprintf("button %q", d.Value)
	case ByLink:
		return fmt.Sprintf("link %q", d.Value)
	case BySelector:
		return fmt.Sprintf("selector %q", d.Value)
	default:
		return fmt.Sprintf("text %q", d.Value)
	}
}

// Element is a live handle to a DOM element.
type Element interface {
	Click() error
	// Input focuses the element and types text into it.
	Input(text string) error
	Text() (string, error)
	// Attribute returns the attribute value, or "" when absent.
	Attribute(name string) (string, error)
	Visible() (bool, error)
	// Interactable reports whether the element can receive a real click
	// (visible, nonzero size, not covered by another element).
	Interactable() (bool, error)
	// ScriptClick dispatches a click from script, bypassing the
	// interactability checks a normal Click performs. Overlays often
	// visually block natural clicks, so closing them needs this.
	ScriptClick() error
}

// Session is the single live browser connection all primitives operate
// against. Implementations must not wait for elements to appear; Find is
// a one-shot DOM query, and any polling belongs to the Locator.
type Session interface {
	Navigate(url string) error
	Find(d Descriptor) ([]Element, error)
	// Type sends text to the currently focused element.
	Type(text string) error
	// Submit presses Enter on the focused element.
	Submit() error
	// Screenshot captures the viewport as PNG bytes.
	Screenshot() ([]byte, error)
	CurrentURL() (string, error)
	// Health probes the connection. A non-nil result is always a
	// *DriverError and means the session is unusable.
	Health() error
	Close() error
}

// ErrElementNotFound is returned by the Locator when a descriptor never
// resolved to an interactable element within its timeout.
var ErrElementNotFound = errors.New("element not found")

// DriverError marks the session itself as unusable (browser crashed or
// disconnected). Unlike ordinary DOM failures it propagates out of
// primitives and aborts the run.
type DriverError struct {
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("browser driver failure: %v", e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }
