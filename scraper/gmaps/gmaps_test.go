package gmaps

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmaps-scraper/browser"
	"gmaps-scraper/browser/browsertest"
	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

const resultsHTML = `<html><body>
<input id="searchboxinput">
<div role="feed" aria-label="Results for casa do norte">
  <div class="Nv2PK" data-opens="p1">Casa A</div>
  <div class="Nv2PK" data-opens="p2">Casa B</div>
  <div class="Nv2PK" data-click-error="node detached">Broken</div>
  <div class="Nv2PK" data-opens="p3">Casa C</div>
</div>
<div data-detail-panel="p1">
  <h1 class="DUwDvf">  Casa do Norte A </h1>
  <button data-item-id="address">Rua 1, 100 - Centro</button>
  <button data-item-id="phone:tel:+551100000000">+55 11 0000-0000</button>
  <a data-item-id="authority" href="http://casa-a.com.br/">casa-a.com.br</a>
  <button jsaction="pane.rating.category">Loja de produtos naturais</button>
</div>
<div data-detail-panel="p2">
  <h1>Casa B</h1>
  <button aria-label="Endereço: Rua 2">Rua 2</button>
  <a href="tel:+551111111111">+55 11 1111-1111</a>
</div>
<div data-detail-panel="p3">
  <h1><span jsaction="noop">   </span></h1>
</div>
</body></html>`

func newPage(t *testing.T, html string) *browsertest.Page {
	t.Helper()
	p, err := browsertest.NewPage(html)
	require.NoError(t, err)
	return p
}

func openPanel(t *testing.T, p *browsertest.Page, panel string) {
	t.Helper()
	els, err := p.FindAll(browser.CSS(`[data-opens="` + panel + `"]`))
	require.NoError(t, err)
	require.Len(t, els, 1)
	require.NoError(t, p.Click(els[0]))
}

func TestExtractFirstCandidateWins(t *testing.T) {
	p := newPage(t, resultsHTML)
	openPanel(t, p, "p1")

	rec := NewExtractor(utils.NewNopLogger()).Record(p)
	assert.Equal(t, models.ListingRecord{
		Name:        "Casa do Norte A",
		Address:     "Rua 1, 100 - Centro",
		Phone:       "+55 11 0000-0000",
		Site:        "http://casa-a.com.br/",
		Description: "Loja de produtos naturais",
	}, rec)
}

func TestExtractFallsThroughCandidates(t *testing.T) {
	p := newPage(t, resultsHTML)
	openPanel(t, p, "p2")

	rec := NewExtractor(utils.NewNopLogger()).Record(p)
	assert.Equal(t, "Casa B", rec.Name)
	assert.Equal(t, "Rua 2", rec.Address)
	assert.Equal(t, "+55 11 1111-1111", rec.Phone)
	assert.Equal(t, models.NotAvailable, rec.Site)
	assert.Equal(t, models.NotAvailable, rec.Description)
}

func TestExtractBlankTextIsSentinel(t *testing.T) {
	p := newPage(t, resultsHTML)
	openPanel(t, p, "p3")

	rec := NewExtractor(utils.NewNopLogger()).Record(p)
	for i, v := range rec.Fields() {
		assert.Equal(t, models.NotAvailable, v, "field %s", models.Columns[i])
	}
}

func TestExtractSiteFallsBackToText(t *testing.T) {
	p := newPage(t, `<a data-item-id="website">  www.loja.com.br </a>`)
	got := NewExtractor(utils.NewNopLogger()).Extract(p, SiteField)
	assert.Equal(t, "www.loja.com.br", got)
}

// xpathPage answers XPath lookups from a fixed table, which goquery cannot.
type xpathPage struct {
	*browsertest.Page
	xpath map[string]string
}

type xpathElement struct{ text string }

func (e *xpathElement) String() string { return "xpath-element" }

func (p *xpathPage) Find(loc browser.Locator) (browser.Element, error) {
	if loc.Strategy == browser.ByXPath {
		if text, ok := p.xpath[loc.Value]; ok {
			return &xpathElement{text: text}, nil
		}
		return nil, eris.Wrap(browser.ErrNotFound, loc.String())
	}
	return p.Page.Find(loc)
}

func (p *xpathPage) Text(el browser.Element) (string, error) {
	if x, ok := el.(*xpathElement); ok {
		return x.text, nil
	}
	return p.Page.Text(el)
}

func TestExtractStructuralFallbacks(t *testing.T) {
	p := &xpathPage{
		Page: newPage(t, `<h1>Empório Sul</h1>`),
		xpath: map[string]string{
			PhoneField.Fallbacks[0].Value:   " (11) 3333-4444 ",
			AddressField.Fallbacks[0].Value: "Av. Paulista, 1000",
		},
	}

	rec := NewExtractor(utils.NewNopLogger()).Record(p)
	assert.Equal(t, "Empório Sul", rec.Name)
	assert.Equal(t, "(11) 3333-4444", rec.Phone)
	assert.Equal(t, "Av. Paulista, 1000", rec.Address)
}

func TestExtractFallbackOnlyAfterCandidatesMiss(t *testing.T) {
	p := &xpathPage{
		Page: newPage(t, `<a href="tel:1">+55 11 2222-2222</a>`),
		xpath: map[string]string{
			PhoneField.Fallbacks[0].Value: "from fallback",
		},
	}

	got := NewExtractor(utils.NewNopLogger()).Extract(p, PhoneField)
	assert.Equal(t, "+55 11 2222-2222", got)
}

func noDelays(scrolls int) WalkOptions {
	return WalkOptions{ScrollCount: scrolls}
}

func TestWalkSkipsFailingListing(t *testing.T) {
	p := newPage(t, resultsHTML)
	w := NewWalker(noDelays(4), NewExtractor(utils.NewNopLogger()), utils.NewNopLogger())

	records := w.Walk(context.Background(), p)

	require.Len(t, records, 3)
	assert.Equal(t, "Casa do Norte A", records[0].Name)
	assert.Equal(t, "Casa B", records[1].Name)
	assert.Equal(t, models.NotAvailable, records[2].Name)
	assert.Equal(t, 4, p.Scrolls)
	assert.Len(t, p.Clicks, 3)
}

func TestWalkWithoutResultsPanelStillVisitsListings(t *testing.T) {
	p := newPage(t, `<div class="Nv2PK" data-opens="a">A</div>
<div data-detail-panel="a"><h1>Only</h1></div>`)
	w := NewWalker(noDelays(4), NewExtractor(utils.NewNopLogger()), utils.NewNopLogger())

	records := w.Walk(context.Background(), p)

	require.Len(t, records, 1)
	assert.Equal(t, "Only", records[0].Name)
	assert.Equal(t, 0, p.Scrolls)
}

func TestWalkEveryFieldPopulated(t *testing.T) {
	p := newPage(t, resultsHTML)
	w := NewWalker(noDelays(1), NewExtractor(utils.NewNopLogger()), utils.NewNopLogger())

	for _, rec := range w.Walk(context.Background(), p) {
		for _, v := range rec.Fields() {
			assert.NotEmpty(t, v)
		}
	}
}

func TestWalkStopsOnCancelledContext(t *testing.T) {
	p := newPage(t, resultsHTML)
	w := NewWalker(noDelays(4), NewExtractor(utils.NewNopLogger()), utils.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, w.Walk(ctx, p))
}

func TestRunSubmitsSearchAndClosesSession(t *testing.T) {
	opener := &browsertest.Opener{HTML: resultsHTML}
	r := NewRunner(opener, RunnerOptions{Walk: noDelays(2)}, utils.NewNopLogger())

	records, err := r.Run(context.Background(), "casa do norte", "São Paulo")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	require.Len(t, opener.Pages, 1)
	page := opener.Pages[0]
	assert.True(t, page.Closed())
	assert.Equal(t, []string{DefaultMapsURL}, page.Navigations)
	assert.Equal(t, []string{"casa do norte in São Paulo" + browser.Enter}, page.SentKeys)
	assert.Equal(t, []browser.Locator{ListingLocator}, page.Waits)
}

func TestRunProceedsAfterResultsTimeout(t *testing.T) {
	opener := &browsertest.Opener{HTML: `<input id="searchboxinput">`}
	r := NewRunner(opener, RunnerOptions{MapsURL: "http://maps.test"}, utils.NewNopLogger())

	records, err := r.Run(context.Background(), "empório", "Recife")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, opener.AllClosed())
	assert.Equal(t, []string{"http://maps.test"}, opener.Pages[0].Navigations)
}

func TestRunClosesSessionOnFailure(t *testing.T) {
	opener := &browsertest.Opener{HTML: `<div class="Nv2PK"></div>`}
	r := NewRunner(opener, RunnerOptions{}, utils.NewNopLogger())

	_, err := r.Run(context.Background(), "q", "l")
	require.Error(t, err)
	assert.True(t, eris.Is(err, browser.ErrNotFound))
	assert.True(t, opener.AllClosed())
}

func TestRunOpenFailure(t *testing.T) {
	opener := &browsertest.Opener{Err: eris.New("chrome not installed")}
	r := NewRunner(opener, RunnerOptions{}, utils.NewNopLogger())

	_, err := r.Run(context.Background(), "q", "l")
	assert.Error(t, err)
	assert.Empty(t, opener.Pages)
}
