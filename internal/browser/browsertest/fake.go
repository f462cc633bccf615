// Package browsertest provides a scriptable in-memory Session for package
// tests, so primitives and the agent loop can run without a live browser.
package browsertest

import (
	"errors"
	"sync"

	"github.com/v0xg/shopagent/internal/browser"
)

// FakeElement implements browser.Element with configurable state.
type FakeElement struct {
	TextContent string
	Attrs       map[string]string
	Hidden      bool
	Covered     bool // visible but not interactable

	ClickErr       error
	InputErr       error
	ScriptClickErr error

	Clicks       int
	ScriptClicks int
	Inputs       []string
}

func (e *FakeElement) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	return nil
}

func (e *FakeElement) Input(text string) error {
	if e.InputErr != nil {
		return e.InputErr
	}
	e.Inputs = append(e.Inputs, text)
	return nil
}

func (e *FakeElement) Text() (string, error) { return e.TextContent, nil }

func (e *FakeElement) Attribute(name string) (string, error) {
	return e.Attrs[name], nil
}

func (e *FakeElement) Visible() (bool, error) { return !e.Hidden, nil }

func (e *FakeElement) Interactable() (bool, error) {
	return !e.Hidden && !e.Covered, nil
}

func (e *FakeElement) ScriptClick() error {
	if e.ScriptClickErr != nil {
		return e.ScriptClickErr
	}
	e.ScriptClicks++
	return nil
}

// FakeSession implements browser.Session against an in-memory element map
// keyed by Descriptor.String().
type FakeSession struct {
	mu sync.Mutex

	URL     string
	Dead    bool // simulates a crashed/disconnected driver
	NavErr  error
	FindErr error
	ShotErr error

	Screenshots [][]byte // returned in order; last one repeats

	NavigatedTo []string
	Typed       []string
	Submits     int
	Closed      bool

	elements map[string][]*FakeElement
	// appearAfter delays a descriptor's elements until it has been
	// queried that many times, to exercise the locator's polling.
	appearAfter map[string]int
	findCounts  map[string]int
	shotIdx     int
}

func NewFakeSession() *FakeSession {
	return &FakeSession{
		URL:         "about:blank",
		elements:    make(map[string][]*FakeElement),
		appearAfter: make(map[string]int),
		findCounts:  make(map[string]int),
	}
}

// Add registers elements for a descriptor.
func (s *FakeSession) Add(d browser.Descriptor, els ...*FakeElement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[d.String()] = append(s.elements[d.String()], els...)
}

// AppearAfter makes a descriptor resolve only from the n+1th Find onward.
func (s *FakeSession) AppearAfter(d browser.Descriptor, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appearAfter[d.String()] = n
}

// FindCount reports how many times a descriptor has been queried.
func (s *FakeSession) FindCount(d browser.Descriptor) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCounts[d.String()]
}

func (s *FakeSession) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		return &browser.DriverError{Err: errors.New("session is dead")}
	}
	if s.NavErr != nil {
		return s.NavErr
	}
	s.NavigatedTo = append(s.NavigatedTo, url)
	s.URL = url
	return nil
}

func (s *FakeSession) Find(d browser.Descriptor) ([]browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		return nil, &browser.DriverError{Err: errors.New("session is dead")}
	}
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	key := d.String()
	s.findCounts[key]++
	if s.findCounts[key] <= s.appearAfter[key] {
		return nil, nil
	}
	els := s.elements[key]
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out, nil
}

func (s *FakeSession) Type(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		return &browser.DriverError{Err: errors.New("session is dead")}
	}
	s.Typed = append(s.Typed, text)
	return nil
}

func (s *FakeSession) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		return &browser.DriverError{Err: errors.New("session is dead")}
	}
	s.Submits++
	return nil
}

func (s *FakeSession) Screenshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		return nil, errors.New("session is dead")
	}
	if s.ShotErr != nil {
		return nil, s.ShotErr
	}
	if len(s.Screenshots) == 0 {
		return []byte("png"), nil
	}
	shot := s.Screenshots[s.shotIdx]
	if s.shotIdx < len(s.Screenshots)-1 {
		s.shotIdx++
	}
	return shot, nil
}

func (s *FakeSession) CurrentURL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		return "", errors.New("session is dead")
	}
	return s.URL, nil
}

func (s *FakeSession) Health() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		return &browser.DriverError{Err: errors.New("session is dead")}
	}
	return nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
