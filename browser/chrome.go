package browser

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ChromeOpener launches a dedicated Chrome process per session.
type ChromeOpener struct {
	Headless  bool
	ChromeBin string
	UserAgent string
}

// Open starts a browser bound to ctx. Cancelling ctx tears the browser down.
func (o *ChromeOpener) Open(ctx context.Context) (Session, error) {
	ua := o.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("start-maximized", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(ua),
	)
	bin := o.ChromeBin
	if bin == "" {
		bin = FindChromeBinary()
	}
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, eris.Wrap(err, "chrome: start browser")
	}

	return &chromeSession{
		ctx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

type chromeElement struct {
	node *cdp.Node
}

func (e *chromeElement) String() string {
	return e.node.FullXPath()
}

type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *chromeSession) Navigate(url string) error {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return eris.Wrapf(err, "chrome: navigate %s", url)
	}
	return nil
}

func (s *chromeSession) Find(loc Locator) (Element, error) {
	els, err := s.FindAll(loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, eris.Wrap(ErrNotFound, loc.String())
	}
	return els[0], nil
}

func (s *chromeSession) FindAll(loc Locator) ([]Element, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(s.ctx, chromedp.Nodes(loc.Selector(), &nodes, queryOption(loc), chromedp.AtLeast(0))); err != nil {
		return nil, eris.Wrapf(err, "chrome: query %s", loc)
	}
	return wrapNodes(nodes), nil
}

func (s *chromeSession) WaitAll(loc Locator, timeout time.Duration) ([]Element, error) {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(loc.Selector(), &nodes, queryOption(loc))); err != nil {
		if eris.Is(err, context.DeadlineExceeded) {
			return nil, eris.Wrap(ErrTimeout, loc.String())
		}
		return nil, eris.Wrapf(err, "chrome: wait %s", loc)
	}
	return wrapNodes(nodes), nil
}

func (s *chromeSession) SendKeys(el Element, keys string) error {
	n, err := nodeOf(el)
	if err != nil {
		return err
	}
	if err := chromedp.Run(s.ctx, chromedp.SendKeys([]cdp.NodeID{n.NodeID}, keys, chromedp.ByNodeID)); err != nil {
		return eris.Wrap(err, "chrome: send keys")
	}
	return nil
}

func (s *chromeSession) ScrollToBottom(el Element) error {
	return s.callOn(el, `function() { this.scrollTop = this.scrollHeight; }`, nil)
}

func (s *chromeSession) ScrollIntoView(el Element) error {
	n, err := nodeOf(el)
	if err != nil {
		return err
	}
	err = chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.ScrollIntoViewIfNeeded().WithNodeID(n.NodeID).Do(ctx)
	}))
	if err != nil {
		return eris.Wrap(err, "chrome: scroll into view")
	}
	return nil
}

func (s *chromeSession) Click(el Element) error {
	n, err := nodeOf(el)
	if err != nil {
		return err
	}
	if err := chromedp.Run(s.ctx, chromedp.MouseClickNode(n)); err != nil {
		return eris.Wrap(err, "chrome: click")
	}
	return nil
}

func (s *chromeSession) Text(el Element) (string, error) {
	var text string
	err := s.callOn(el, `function() { return this.innerText || this.textContent || ""; }`, &text)
	return text, err
}

func (s *chromeSession) Attribute(el Element, name string) (string, error) {
	var val string
	// Properties come first so href resolves to an absolute URL.
	err := s.callOn(el, `function(name) {
		var v = this[name];
		if (typeof v === "string" && v) { return v; }
		return this.getAttribute(name) || "";
	}`, &val, name)
	return val, err
}

func (s *chromeSession) Close() error {
	var err error
	s.once.Do(func() {
		// Cancel closes the browser gracefully; cancel releases the contexts.
		err = chromedp.Cancel(s.ctx)
		s.cancel()
	})
	if err != nil {
		return eris.Wrap(err, "chrome: close browser")
	}
	return nil
}

func (s *chromeSession) callOn(el Element, fn string, res interface{}, args ...interface{}) error {
	n, err := nodeOf(el)
	if err != nil {
		return err
	}
	err = chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, n, fn, res, args...)
	}))
	if err != nil {
		return eris.Wrap(err, "chrome: call function on node")
	}
	return nil
}

func queryOption(loc Locator) chromedp.QueryOption {
	if loc.Strategy == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

func wrapNodes(nodes []*cdp.Node) []Element {
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &chromeElement{node: n})
	}
	return els
}

func nodeOf(el Element) (*cdp.Node, error) {
	ce, ok := el.(*chromeElement)
	if !ok || ce.node == nil {
		return nil, eris.Errorf("chrome: element %v does not belong to a chrome session", el)
	}
	return ce.node, nil
}

// FindChromeBinary locates a Chrome/Chromium binary, honouring CHROME_BIN.
// It returns "" when nothing is found so chromedp can apply its own lookup.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
