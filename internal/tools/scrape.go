package tools

import (
	"context"
	"strings"

	"github.com/v0xg/shopagent/internal/browser"
)

// ScrapeCategories waits for the homepage category grid and collects the
// alt text of each category image.
func (s *Shop) ScrapeCategories(ctx context.Context, _ Args) (Outcome, error) {
	sel := browser.Selector(s.cfg.CategorySelector)

	if _, err := s.locator.Locate(sel, s.cfg.CategoryTimeout); err != nil {
		return s.fail(err, "Error scraping categories")
	}

	els, err := s.session.Find(sel)
	if err != nil {
		return s.fail(err, "Error scraping categories")
	}
	if len(els) == 0 {
		return Failf("No category images found. Possibly incorrect selector."), nil
	}

	var names []string
	for _, el := range els {
		alt, err := el.Attribute("alt")
		if err != nil {
			continue
		}
		if alt = strings.TrimSpace(alt); alt != "" {
			names = append(names, alt)
		}
	}
	if len(names) == 0 {
		return Failf("No alt text found in category images."), nil
	}
	return Okf("Categories found: %s", strings.Join(names, ", ")), nil
}
