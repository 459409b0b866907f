package gmaps

import (
	"strings"

	"github.com/rotisserie/eris"

	"gmaps-scraper/browser"
	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// FieldSpec lists the lookups tried, in order, for one detail panel field.
type FieldSpec struct {
	Name       string
	Candidates []browser.Locator
	// Attribute is read before the element text when set (href for sites).
	Attribute string
	// Fallbacks are tried only after every candidate missed.
	Fallbacks []browser.Locator
}

// Detail panel lookups. The Portuguese and English aria labels cover the
// two interface languages the map surface is commonly served in.
var (
	NameField = FieldSpec{
		Name: "name",
		Candidates: []browser.Locator{
			browser.Class("DUwDvf"),
			browser.CSS("h1"),
			browser.CSS("h1 span[jsaction]"),
		},
	}

	AddressField = FieldSpec{
		Name: "address",
		Candidates: []browser.Locator{
			browser.CSS(`button[data-item-id="address"]`),
			browser.CSS(`button[aria-label*="Endereço"]`),
			browser.CSS(`button[aria-label^="Address"]`),
			browser.CSS(`[data-item-id="address"] .section-info-text`),
		},
		Fallbacks: []browser.Locator{
			browser.XPath(`//button[contains(@aria-label,'Endereço') or contains(@aria-label,'Address') or contains(@data-item-id,'address')]//div/span`),
		},
	}

	PhoneField = FieldSpec{
		Name: "phone",
		Candidates: []browser.Locator{
			browser.CSS(`button[data-item-id^="phone"]`),
			browser.CSS(`button[aria-label*="Telefone"]`),
			browser.CSS(`button[aria-label^="Phone"]`),
			browser.CSS(`a[href^="tel:"]`),
		},
		Fallbacks: []browser.Locator{
			browser.XPath(`//button[contains(@aria-label,'Telefone') or contains(@aria-label,'Phone') or contains(@data-item-id,'phone')]//div/span`),
		},
	}

	SiteField = FieldSpec{
		Name:      "site",
		Attribute: "href",
		Candidates: []browser.Locator{
			browser.CSS(`a[data-item-id="authority"]`),
			browser.CSS(`a[data-item-id="website"]`),
			browser.CSS(`a[aria-label^="Site"]`),
			browser.CSS(`a[aria-label^="Website"]`),
			browser.CSS(`a[href^="http"]`),
		},
	}

	DescriptionField = FieldSpec{
		Name: "description",
		Candidates: []browser.Locator{
			browser.CSS(".qW6peb"),
			browser.CSS(".HlvSq"),
			browser.CSS(`button[jsaction*="category"]`),
			browser.CSS(`[data-tooltip*="categoria"]`),
		},
	}
)

// Extractor reads listing fields from the currently open detail panel.
type Extractor struct {
	logger *utils.Logger
}

// NewExtractor creates an Extractor with the given logger.
func NewExtractor(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the first non-empty value produced by spec's candidates,
// then its fallbacks, or models.NotAvailable when all of them miss.
func (e *Extractor) Extract(sess browser.Session, spec FieldSpec) string {
	if v := e.firstOf(sess, spec, spec.Candidates); v != "" {
		return v
	}
	if v := e.firstOf(sess, spec, spec.Fallbacks); v != "" {
		return v
	}
	return models.NotAvailable
}

// Record extracts every field of the open detail panel.
func (e *Extractor) Record(sess browser.Session) models.ListingRecord {
	return models.ListingRecord{
		Name:        e.Extract(sess, NameField),
		Address:     e.Extract(sess, AddressField),
		Phone:       e.Extract(sess, PhoneField),
		Site:        e.Extract(sess, SiteField),
		Description: e.Extract(sess, DescriptionField),
	}
}

func (e *Extractor) firstOf(sess browser.Session, spec FieldSpec, locs []browser.Locator) string {
	for _, loc := range locs {
		v, err := e.read(sess, spec, loc)
		if err != nil {
			if !eris.Is(err, browser.ErrNotFound) {
				e.logger.Debug("[extract] %s via %s: %v", spec.Name, loc, err)
			}
			continue
		}
		if v != "" {
			return v
		}
	}
	return ""
}

func (e *Extractor) read(sess browser.Session, spec FieldSpec, loc browser.Locator) (string, error) {
	el, err := sess.Find(loc)
	if err != nil {
		return "", err
	}
	if spec.Attribute != "" {
		v, err := sess.Attribute(el, spec.Attribute)
		if err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	text, err := sess.Text(el)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
