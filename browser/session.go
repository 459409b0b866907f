// Package browser describes the page-automation surface the scraper drives
// and provides a Chrome implementation of it.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

var (
	// ErrNotFound is returned when a lookup matches no element.
	ErrNotFound = eris.New("browser: element not found")
	// ErrTimeout is returned when a bounded wait expires before any match.
	ErrTimeout = eris.New("browser: timed out waiting for element")
)

// Strategy selects how a Locator value is interpreted.
type Strategy int

const (
	ByCSS Strategy = iota
	ByXPath
	ByClass
	ByID
)

func (s Strategy) String() string {
	switch s {
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	case ByClass:
		return "class"
	case ByID:
		return "id"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Locator is one way of finding elements on the page.
type Locator struct {
	Strategy Strategy
	Value    string
}

func CSS(v string) Locator   { return Locator{Strategy: ByCSS, Value: v} }
func XPath(v string) Locator { return Locator{Strategy: ByXPath, Value: v} }
func Class(v string) Locator { return Locator{Strategy: ByClass, Value: v} }
func ID(v string) Locator    { return Locator{Strategy: ByID, Value: v} }

func (l Locator) String() string {
	return l.Strategy.String() + "=" + l.Value
}

// Selector returns the CSS selector equivalent of l. XPath locators are
// returned unchanged.
func (l Locator) Selector() string {
	switch l.Strategy {
	case ByClass:
		return "." + l.Value
	case ByID:
		return "#" + l.Value
	}
	return l.Value
}

// Element is a handle to a node owned by a Session. Handles are only valid
// for the Session that produced them.
type Element interface {
	String() string
}

// Enter submits a form when appended to SendKeys input.
const Enter = "\r"

// Session is one isolated browser session.
type Session interface {
	Navigate(url string) error
	// Find returns the first match or ErrNotFound, without waiting.
	Find(loc Locator) (Element, error)
	// FindAll returns every current match; no match is an empty slice.
	FindAll(loc Locator) ([]Element, error)
	// WaitAll waits until at least one element matches or returns ErrTimeout.
	WaitAll(loc Locator, timeout time.Duration) ([]Element, error)
	SendKeys(el Element, keys string) error
	ScrollToBottom(el Element) error
	ScrollIntoView(el Element) error
	Click(el Element) error
	Text(el Element) (string, error)
	// Attribute returns the named property or attribute, "" when unset.
	Attribute(el Element, name string) (string, error)
	// Close quits the browser. It is safe to call more than once.
	Close() error
}

// Opener starts fresh sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}
