package gmaps

import (
	"context"
	"time"

	"gmaps-scraper/browser"
	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

var (
	// ListingLocator matches one result card in the results panel.
	ListingLocator = browser.Class("Nv2PK")

	// resultsPanelLocators are tried in order to find the scrollable results list.
	resultsPanelLocators = []browser.Locator{
		browser.CSS(`div[aria-label^="Results for"]`),
		browser.CSS(`div[role="feed"]`),
		browser.CSS(`div[role="region"]`),
	}
)

// WalkOptions tunes the scroll-and-click loop. Zero delays are allowed.
type WalkOptions struct {
	ScrollCount int
	ScrollDelay time.Duration
	ItemDelay   time.Duration
	DetailDelay time.Duration
}

// Walker scrolls the results panel and extracts every listing it surfaces.
type Walker struct {
	opts      WalkOptions
	extractor *Extractor
	logger    *utils.Logger
}

// NewWalker creates a Walker.
func NewWalker(opts WalkOptions, extractor *Extractor, logger *utils.Logger) *Walker {
	return &Walker{opts: opts, extractor: extractor, logger: logger}
}

// Walk loads more listings by scrolling, then opens each listing and
// extracts its fields. A listing that fails is logged and skipped.
// Coverage is best effort: listings beyond what ScrollCount scrolls surface
// are not visited.
func (w *Walker) Walk(ctx context.Context, sess browser.Session) []models.ListingRecord {
	w.scrollResults(ctx, sess)

	listings, err := sess.FindAll(ListingLocator)
	if err != nil {
		w.logger.Warn("[walker] Could not collect listings: %v", err)
		return nil
	}
	w.logger.Info("[walker] Found %d listings", len(listings))

	records := make([]models.ListingRecord, 0, len(listings))
	for i, el := range listings {
		if ctx.Err() != nil {
			w.logger.Warn("[walker] Stopping after %d/%d listings: %v", i, len(listings), ctx.Err())
			break
		}

		rec, err := w.visit(ctx, sess, el)
		if err != nil {
			w.logger.Warn("[walker] Error processing listing %d (%s): %v", i+1, el, err)
			continue
		}
		records = append(records, rec)
		w.logger.Debug("[walker] Listing %d: %s", i+1, rec.Name)
	}

	return records
}

func (w *Walker) scrollResults(ctx context.Context, sess browser.Session) {
	panel := w.findResultsPanel(sess)
	if panel == nil {
		w.logger.Warn("[walker] No scrollable results panel found, skipping scroll")
		return
	}

	for i := 0; i < w.opts.ScrollCount; i++ {
		if err := sess.ScrollToBottom(panel); err != nil {
			w.logger.Warn("[walker] Scroll %d failed: %v", i+1, err)
			return
		}
		if err := sleep(ctx, w.opts.ScrollDelay); err != nil {
			return
		}
	}
}

func (w *Walker) findResultsPanel(sess browser.Session) browser.Element {
	for _, loc := range resultsPanelLocators {
		if el, err := sess.Find(loc); err == nil {
			return el
		}
	}
	return nil
}

func (w *Walker) visit(ctx context.Context, sess browser.Session, el browser.Element) (models.ListingRecord, error) {
	if err := sess.ScrollIntoView(el); err != nil {
		return models.ListingRecord{}, err
	}
	if err := sleep(ctx, w.opts.ItemDelay); err != nil {
		return models.ListingRecord{}, err
	}
	if err := sess.Click(el); err != nil {
		return models.ListingRecord{}, err
	}
	if err := sleep(ctx, w.opts.DetailDelay); err != nil {
		return models.ListingRecord{}, err
	}
	return w.extractor.Record(sess), nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
