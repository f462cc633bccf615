package browser

import (
	"fmt"
	"time"
)

// Locator resolves Descriptors to live elements by polling the DOM at a
// fixed interval until a match is interactable or the timeout expires.
type Locator struct {
	session Session

	// Poll is the interval between DOM queries. Defaults to 200ms.
	Poll time.Duration
}

func NewLocator(s Session) *Locator {
	return &Locator{session: s, Poll: 200 * time.Millisecond}
}

// Locate polls until the descriptor resolves to an interactable element.
// Elements that exist but are hidden, zero-sized, or covered count as
// not-yet-found and polling continues. Expiry yields ErrElementNotFound;
// any other error comes straight from the session.
func (l *Locator) Locate(d Descriptor, timeout time.Duration) (Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		els, err := l.session.Find(d)
		if err != nil {
			return nil, err
		}
		for _, el := range els {
			if interactable(el) {
				return el, nil
			}
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s after %s", ErrElementNotFound, d, timeout)
		}
		time.Sleep(l.Poll)
	}
}

// First is the one-shot companion to Locate: a single DOM query returning
// the first visible match, with ok=false when nothing matches right now.
func (l *Locator) First(d Descriptor) (Element, bool, error) {
	els, err := l.session.Find(d)
	if err != nil {
		return nil, false, err
	}
	for _, el := range els {
		if visible, err := el.Visible(); err == nil && visible {
			return el, true, nil
		}
	}
	return nil, false, nil
}

func interactable(el Element) bool {
	if visible, err := el.Visible(); err != nil || !visible {
		return false
	}
	ok, err := el.Interactable()
	return err == nil && ok
}
