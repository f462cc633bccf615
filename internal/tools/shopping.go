package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/v0xg/shopagent/internal/browser"
)

// Shop holds the primitive action library for one storefront session.
// Every primitive is safe to re-invoke: the planner may retry after a
// failure message, and a redundant call is at worst a harmless repeat.
type Shop struct {
	cfg     Config
	session browser.Session
	locator *browser.Locator
	log     zerolog.Logger
}

func NewShop(cfg Config, session browser.Session, log zerolog.Logger) *Shop {
	return &Shop{
		cfg:     cfg,
		session: session,
		locator: browser.NewLocator(session),
		log:     log.With().Str("component", "tools").Logger(),
	}
}

// Locator exposes the shop's locator so tests can shorten its poll interval.
func (s *Shop) Locator() *browser.Locator { return s.locator }

// ShoppingRegistry builds the dispatch table for the shopping workflow.
func (s *Shop) ShoppingRegistry() *Registry {
	r := NewRegistry()
	r.Register(Tool{
		Name:        "navigate_to_store",
		Description: "Navigate to the storefront homepage and verify it loaded.",
		Run:         s.Navigate,
	})
	r.Register(Tool{
		Name:        "handle_location_popup",
		Description: "Dismiss the location popup if it appears.",
		Run:         s.DismissLocationPopup,
	})
	r.Register(Tool{
		Name:        "search_product",
		Description: "Search the storefront for a product.",
		Args: []ArgSpec{{
			Name:        "product_name",
			Description: "The name of the product to search for.",
		}},
		Run: s.Search,
	})
	r.Register(Tool{
		Name:        "select_first_product",
		Description: "Select the first product from the search results.",
		Run:         s.SelectFirstProduct,
	})
	r.Register(Tool{
		Name:        "add_to_cart",
		Description: "Add the currently selected product to the cart.",
		Run:         s.AddToCart,
	})
	r.Register(Tool{
		Name:        "close_popups",
		Description: "Close any generic popups or modals visible on the page.",
		Run:         s.ClosePopups,
	})
	return r
}

// ScrapeRegistry builds the dispatch table for the category scraping workflow.
func (s *Shop) ScrapeRegistry() *Registry {
	r := NewRegistry()
	r.Register(Tool{
		Name:        "navigate_to_store",
		Description: "Navigate to the storefront homepage and verify it loaded.",
		Run:         s.Navigate,
	})
	r.Register(Tool{
		Name:        "scrape_categories",
		Description: "Scrape the category names from the storefront homepage.",
		Run:         s.ScrapeCategories,
	})
	r.Register(Tool{
		Name:        "close_popups",
		Description: "Close any generic popups or modals visible on the page.",
		Run:         s.ClosePopups,
	})
	return r
}

// Navigate loads the homepage and waits for the landmark text to confirm
// the page rendered.
func (s *Shop) Navigate(ctx context.Context, _ Args) (Outcome, error) {
	if err := s.session.Navigate(s.cfg.HomeURL); err != nil {
		return s.fail(err, "Error navigating to %s", s.cfg.SiteName)
	}
	if _, err := s.locator.Locate(browser.Text(s.cfg.LandmarkText), s.cfg.WaitTimeout); err != nil {
		return s.fail(err, "Error navigating to %s", s.cfg.SiteName)
	}
	return Okf("Successfully navigated to %s.", s.cfg.SiteName), nil
}

// DismissLocationPopup probes the known location-prompt variants in a
// fixed order. The site can satisfy several branches at once, so the
// order is part of the behavior, not an implementation detail.
func (s *Shop) DismissLocationPopup(ctx context.Context, _ Args) (Outcome, error) {
	// Give the popup time to render before probing.
	time.Sleep(s.cfg.PopupSettle)

	if el, ok, err := s.locator.First(browser.Button(s.cfg.DetectLocationLabel)); err != nil {
		return s.fail(err, "Error handling location popup")
	} else if ok {
		if err := el.Click(); err != nil {
			return s.fail(err, "Error handling location popup")
		}
		return Okf("Clicked 'Detect my location'."), nil
	}

	if el, ok, err := s.locator.First(browser.Button(s.cfg.AllowLabel)); err != nil {
		return s.fail(err, "Error handling location popup")
	} else if ok {
		if err := el.Click(); err != nil {
			return s.fail(err, "Error handling location popup")
		}
		return Okf("Clicked 'Allow' on location popup."), nil
	}

	if _, ok, err := s.locator.First(browser.Text(s.cfg.PinPromptText)); err != nil {
		return s.fail(err, "Error handling location popup")
	} else if ok {
		if err := s.session.Type(s.cfg.PostalCode); err != nil {
			return s.fail(err, "Error handling location popup")
		}
		confirm, err := s.locator.Locate(browser.Button(s.cfg.ConfirmLabel), s.cfg.WaitTimeout)
		if err != nil {
			return s.fail(err, "Error handling location popup")
		}
		if err := confirm.Click(); err != nil {
			return s.fail(err, "Error handling location popup")
		}
		return Okf("Entered PIN and confirmed location."), nil
	}

	return Okf("No location popup detected."), nil
}

// Search opens the search entry point, types the term, submits, and waits
// for the term to show up in the results.
func (s *Shop) Search(ctx context.Context, args Args) (Outcome, error) {
	term := args["product_name"]

	entry, err := s.locator.Locate(browser.Link(s.cfg.SearchEntryLink), s.cfg.WaitTimeout)
	if err != nil {
		return s.fail(err, "Error searching for '%s'", term)
	}
	if err := entry.Click(); err != nil {
		return s.fail(err, "Error searching for '%s'", term)
	}
	if err := s.session.Type(term); err != nil {
		return s.fail(err, "Error searching for '%s'", term)
	}
	if err := s.session.Submit(); err != nil {
		return s.fail(err, "Error searching for '%s'", term)
	}
	if _, err := s.locator.Locate(browser.Text(term), s.cfg.WaitTimeout); err != nil {
		return s.fail(err, "Error searching for '%s'", term)
	}
	return Okf("Successfully searched for '%s'.", term), nil
}

// SelectFirstProduct clicks the first product card in the results.
func (s *Shop) SelectFirstProduct(ctx context.Context, _ Args) (Outcome, error) {
	el, err := s.locator.Locate(browser.Selector(s.cfg.ResultSelector), s.cfg.WaitTimeout)
	if err != nil {
		return s.fail(err, "Error selecting the first product")
	}
	if err := el.Click(); err != nil {
		return s.fail(err, "Error selecting the first product")
	}
	return Okf("Successfully selected the first product."), nil
}

// AddToCart clicks the add-to-cart control on the open product panel.
func (s *Shop) AddToCart(ctx context.Context, _ Args) (Outcome, error) {
	el, err := s.locator.Locate(browser.Button(s.cfg.AddToCartLabel), s.cfg.WaitTimeout)
	if err != nil {
		return s.fail(err, "Error adding product to the cart")
	}
	if err := el.Click(); err != nil {
		return s.fail(err, "Error adding product to the cart")
	}
	return Okf("Successfully added the product to the cart."), nil
}

// ClosePopups force-clicks every currently displayed match of the known
// overlay selectors via script dispatch, since overlays tend to block
// natural clicks. Finding nothing is success.
func (s *Shop) ClosePopups(ctx context.Context, _ Args) (Outcome, error) {
	closed := 0
	for _, sel := range s.cfg.OverlaySelectors {
		els, err := s.session.Find(browser.Selector(sel))
		if err != nil {
			return s.fail(err, "Error closing popups")
		}
		for _, el := range els {
			visible, err := el.Visible()
			if err != nil || !visible {
				continue
			}
			if err := el.ScriptClick(); err != nil {
				return s.fail(err, "Error closing popups")
			}
			closed++
		}
	}
	return Okf("Closed %d popups.", closed), nil
}

// fail converts a DOM-level error into a failed Outcome. If the session
// itself turns out to be dead, the driver error escalates instead so the
// run aborts rather than looping on meaningless failure messages.
func (s *Shop) fail(err error, format string, a ...any) (Outcome, error) {
	var derr *browser.DriverError
	if errors.As(err, &derr) {
		return Outcome{}, err
	}
	if herr := s.session.Health(); herr != nil {
		return Outcome{}, herr
	}
	msg := fmt.Sprintf(format, a...)
	s.log.Debug().Err(err).Msg(msg)
	return Failf("%s: %v", msg, err), nil
}
