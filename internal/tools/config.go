package tools

import "time"

// Config carries the site-specific landmarks and timing the primitives
// depend on. Defaults target the Zepto storefront.
type Config struct {
	HomeURL  string
	SiteName string

	// LandmarkText confirms the homepage finished rendering.
	LandmarkText string
	// SearchEntryLink is the link text opening the search box.
	SearchEntryLink string
	// ResultSelector marks product cards in search results.
	ResultSelector string
	AddToCartLabel string

	DetectLocationLabel string
	AllowLabel          string
	PinPromptText       string
	ConfirmLabel        string
	PostalCode          string

	// CategorySelector matches the homepage category grid images whose
	// alt text holds the category name.
	CategorySelector string

	// OverlaySelectors is the fixed list of known modal/overlay patterns
	// close_popups force-clicks. Order matters: a page may match several.
	OverlaySelectors []string

	// WaitTimeout bounds the landmark waits inside navigate, search,
	// select and add-to-cart.
	WaitTimeout time.Duration
	// PopupSettle is how long the location prompt gets to render before
	// the dismiss branches are probed.
	PopupSettle time.Duration
	// CategoryTimeout bounds the category grid wait.
	CategoryTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		HomeURL:  "https://www.zeptonow.com/",
		SiteName: "Zepto",

		LandmarkText:    "Search for",
		SearchEntryLink: "Search for products",
		ResultSelector:  ".cursor-pointer",
		AddToCartLabel:  "Add to Cart",

		DetectLocationLabel: "Detect my location",
		AllowLabel:          "Allow",
		PinPromptText:       "Enter your Pin Code",
		ConfirmLabel:        "Confirm",
		PostalCode:          "400001",

		CategorySelector: `div[id="CATEGORY_GRID_V3-element"] img[alt]`,

		OverlaySelectors: []string{
			"button[class*='close']",
			"[class*='modal']",
			".modal-close",
			".close-modal",
		},

		WaitTimeout:     10 * time.Second,
		PopupSettle:     2 * time.Second,
		CategoryTimeout: 3 * time.Second,
	}
}
