// Package browsertest provides an in-memory browser.Session over static HTML
// for exercising scraping code without a real browser.
//
// Elements inside a container carrying data-detail-panel="<id>" are only
// visible while that panel is active. Clicking an element with
// data-opens="<id>" activates the panel, and clicking an element with
// data-click-error fails. XPath lookups always miss because goquery only
// speaks CSS; tests that need XPath behaviour stub the session instead.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"gmaps-scraper/browser"
)

// Page is a browser.Session backed by a goquery document.
type Page struct {
	mu  sync.Mutex
	doc *goquery.Document

	activePanel string
	closed      bool

	Navigations []string
	SentKeys    []string
	Clicks      []string
	Scrolls     int
	Waits       []browser.Locator
}

// NewPage parses html into a Page.
func NewPage(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "browsertest: parse html")
	}
	return &Page{doc: doc}, nil
}

// Element wraps a single matched node.
type Element struct {
	sel *goquery.Selection
}

func (e *Element) String() string {
	name := goquery.NodeName(e.sel)
	if id, ok := e.sel.Attr("id"); ok {
		return name + "#" + id
	}
	if class, ok := e.sel.Attr("class"); ok {
		return name + "." + strings.ReplaceAll(class, " ", ".")
	}
	return name
}

// Closed reports whether Close has been called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ActivePanel returns the id of the detail panel opened by the last click.
func (p *Page) ActivePanel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activePanel
}

func (p *Page) Navigate(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return eris.New("browsertest: session closed")
	}
	p.Navigations = append(p.Navigations, url)
	return nil
}

func (p *Page) Find(loc browser.Locator) (browser.Element, error) {
	els, err := p.FindAll(loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, eris.Wrap(browser.ErrNotFound, loc.String())
	}
	return els[0], nil
}

func (p *Page) FindAll(loc browser.Locator) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, eris.New("browsertest: session closed")
	}
	if loc.Strategy == browser.ByXPath {
		return []browser.Element{}, nil
	}

	els := []browser.Element{}
	p.doc.Find(loc.Selector()).Each(func(_ int, s *goquery.Selection) {
		if p.visible(s) {
			els = append(els, &Element{sel: s})
		}
	})
	return els, nil
}

func (p *Page) WaitAll(loc browser.Locator, timeout time.Duration) ([]browser.Element, error) {
	p.mu.Lock()
	p.Waits = append(p.Waits, loc)
	p.mu.Unlock()

	els, err := p.FindAll(loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, eris.Wrapf(browser.ErrTimeout, "%s after %s", loc, timeout)
	}
	return els, nil
}

func (p *Page) SendKeys(el browser.Element, keys string) error {
	if _, err := p.element(el); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SentKeys = append(p.SentKeys, keys)
	return nil
}

func (p *Page) ScrollToBottom(el browser.Element) error {
	if _, err := p.element(el); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolls++
	return nil
}

func (p *Page) ScrollIntoView(el browser.Element) error {
	_, err := p.element(el)
	return err
}

func (p *Page) Click(el browser.Element) error {
	e, err := p.element(el)
	if err != nil {
		return err
	}
	if msg, ok := e.sel.Attr("data-click-error"); ok {
		return eris.Errorf("browsertest: click %s: %s", e, msg)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.Clicks = append(p.Clicks, e.String())
	if panel, ok := e.sel.Attr("data-opens"); ok {
		p.activePanel = panel
	}
	return nil
}

func (p *Page) Text(el browser.Element) (string, error) {
	e, err := p.element(el)
	if err != nil {
		return "", err
	}
	return e.sel.Text(), nil
}

func (p *Page) Attribute(el browser.Element, name string) (string, error) {
	e, err := p.element(el)
	if err != nil {
		return "", err
	}
	return e.sel.AttrOr(name, ""), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// visible hides nodes that sit inside an inactive detail panel.
func (p *Page) visible(s *goquery.Selection) bool {
	hidden := false
	s.ParentsFiltered("[data-detail-panel]").AddBack().Each(func(_ int, anc *goquery.Selection) {
		if id, ok := anc.Attr("data-detail-panel"); ok && id != p.activePanel {
			hidden = true
		}
	})
	return !hidden
}

func (p *Page) element(el browser.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, eris.Errorf("browsertest: foreign element %v", el)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, eris.New("browsertest: session closed")
	}
	return e, nil
}

// Opener hands out a fresh Page per Open call, parsed from HTML.
type Opener struct {
	HTML string
	// Err, when set, is returned by every Open call.
	Err error

	mu    sync.Mutex
	Pages []*Page
}

func (o *Opener) Open(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Err != nil {
		return nil, o.Err
	}
	p, err := NewPage(o.HTML)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.Pages = append(o.Pages, p)
	o.mu.Unlock()
	return p, nil
}

// AllClosed reports whether every opened page was closed.
func (o *Opener) AllClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.Pages {
		if !p.Closed() {
			return false
		}
	}
	return true
}

// String describes the opener for test failure output.
func (o *Opener) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fmt.Sprintf("browsertest.Opener(%d pages)", len(o.Pages))
}
