// Package gmaps drives the map search surface: one isolated browser session
// per query, a scroll-and-click walk over the results, and per-field
// selector fallback chains on each detail panel.
package gmaps

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"gmaps-scraper/browser"
	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// DefaultMapsURL is the search surface opened for every query.
const DefaultMapsURL = "https://www.google.com/maps"

var searchBoxLocator = browser.ID("searchboxinput")

// RunnerOptions tunes a single query run.
type RunnerOptions struct {
	MapsURL        string
	PageLoadDelay  time.Duration
	SearchDelay    time.Duration
	ResultsTimeout time.Duration
	// QueryTimeout bounds the whole session; zero means no bound.
	QueryTimeout time.Duration
	Walk         WalkOptions
}

// Runner executes one search end to end.
type Runner struct {
	opener browser.Opener
	opts   RunnerOptions
	walker *Walker
	logger *utils.Logger
}

// NewRunner creates a Runner that opens sessions through opener.
func NewRunner(opener browser.Opener, opts RunnerOptions, logger *utils.Logger) *Runner {
	if opts.MapsURL == "" {
		opts.MapsURL = DefaultMapsURL
	}
	return &Runner{
		opener: opener,
		opts:   opts,
		walker: NewWalker(opts.Walk, NewExtractor(logger), logger),
		logger: logger,
	}
}

// Run searches for "<query> in <location>" in a fresh session and returns
// the extracted listings. The session is closed on every return path.
func (r *Runner) Run(ctx context.Context, query, location string) (records []models.ListingRecord, err error) {
	if r.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.QueryTimeout)
		defer cancel()
	}

	sess, err := r.opener.Open(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "gmaps: open session")
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			r.logger.Warn("[gmaps] Closing session: %v", cerr)
		}
	}()

	if err := sess.Navigate(r.opts.MapsURL); err != nil {
		return nil, eris.Wrap(err, "gmaps: open search surface")
	}
	if err := sleep(ctx, r.opts.PageLoadDelay); err != nil {
		return nil, eris.Wrap(err, "gmaps: wait for page load")
	}

	box, err := sess.Find(searchBoxLocator)
	if err != nil {
		return nil, eris.Wrap(err, "gmaps: find search box")
	}
	search := fmt.Sprintf("%s in %s", query, location)
	if err := sess.SendKeys(box, search+browser.Enter); err != nil {
		return nil, eris.Wrap(err, "gmaps: submit search")
	}
	if err := sleep(ctx, r.opts.SearchDelay); err != nil {
		return nil, eris.Wrap(err, "gmaps: wait for search")
	}

	if _, err := sess.WaitAll(ListingLocator, r.opts.ResultsTimeout); err != nil {
		if !eris.Is(err, browser.ErrTimeout) {
			return nil, eris.Wrap(err, "gmaps: wait for results")
		}
		r.logger.Warn("[gmaps] No results within %s for %q, continuing", r.opts.ResultsTimeout, search)
	}

	records = r.walker.Walk(ctx, sess)
	r.logger.Info("[gmaps] %q: extracted %d listings", search, len(records))
	return records, nil
}
