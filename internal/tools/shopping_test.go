package tools

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/shopagent/internal/browser"
	"github.com/v0xg/shopagent/internal/browser/browsertest"
)

// newTestShop builds a Shop against a fake session with all waits
// shortened so timeout paths run in milliseconds.
func newTestShop(t *testing.T) (*Shop, *browsertest.FakeSession) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WaitTimeout = 30 * time.Millisecond
	cfg.PopupSettle = 0
	cfg.CategoryTimeout = 30 * time.Millisecond

	session := browsertest.NewFakeSession()
	shop := NewShop(cfg, session, zerolog.Nop())
	shop.Locator().Poll = time.Millisecond
	return shop, session
}

func TestNavigateSuccess(t *testing.T) {
	shop, session := newTestShop(t)
	session.Add(browser.Text("Search for"), &browsertest.FakeElement{})

	outcome, err := shop.Navigate(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "Successfully navigated to Zepto.", outcome.Message)
	assert.Equal(t, []string{"https://www.zeptonow.com/"}, session.NavigatedTo)
}

func TestNavigateLandmarkNeverRenders(t *testing.T) {
	shop, _ := newTestShop(t)

	outcome, err := shop.Navigate(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "Error navigating to Zepto")
}

func TestDismissLocationPopupBranches(t *testing.T) {
	t.Run("detect my location", func(t *testing.T) {
		shop, session := newTestShop(t)
		detect := &browsertest.FakeElement{}
		session.Add(browser.Button("Detect my location"), detect)

		outcome, err := shop.DismissLocationPopup(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, "Clicked 'Detect my location'.", outcome.Message)
		assert.Equal(t, 1, detect.Clicks)
	})

	t.Run("allow", func(t *testing.T) {
		shop, session := newTestShop(t)
		allow := &browsertest.FakeElement{}
		session.Add(browser.Button("Allow"), allow)

		outcome, err := shop.DismissLocationPopup(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "Clicked 'Allow' on location popup.", outcome.Message)
		assert.Equal(t, 1, allow.Clicks)
	})

	t.Run("pin prompt", func(t *testing.T) {
		shop, session := newTestShop(t)
		confirm := &browsertest.FakeElement{}
		session.Add(browser.Text("Enter your Pin Code"), &browsertest.FakeElement{})
		session.Add(browser.Button("Confirm"), confirm)

		outcome, err := shop.DismissLocationPopup(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "Entered PIN and confirmed location.", outcome.Message)
		assert.Equal(t, []string{"400001"}, session.Typed)
		assert.Equal(t, 1, confirm.Clicks)
	})

	t.Run("no popup", func(t *testing.T) {
		shop, _ := newTestShop(t)

		outcome, err := shop.DismissLocationPopup(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, "No location popup detected.", outcome.Message)
	})

	// The live site can satisfy several branches at once; the first
	// branch in the fixed order wins.
	t.Run("detect wins over allow", func(t *testing.T) {
		shop, session := newTestShop(t)
		detect := &browsertest.FakeElement{}
		allow := &browsertest.FakeElement{}
		session.Add(browser.Button("Detect my location"), detect)
		session.Add(browser.Button("Allow"), allow)

		outcome, err := shop.DismissLocationPopup(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "Clicked 'Detect my location'.", outcome.Message)
		assert.Equal(t, 1, detect.Clicks)
		assert.Equal(t, 0, allow.Clicks)
	})
}

func TestSearchSuccess(t *testing.T) {
	shop, session := newTestShop(t)
	entry := &browsertest.FakeElement{}
	session.Add(browser.Link("Search for products"), entry)
	session.Add(browser.Text("bread"), &browsertest.FakeElement{})

	outcome, err := shop.Search(context.Background(), Args{"product_name": "bread"})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "Successfully searched for 'bread'.", outcome.Message)
	assert.Equal(t, 1, entry.Clicks)
	assert.Equal(t, []string{"bread"}, session.Typed)
	assert.Equal(t, 1, session.Submits)
}

func TestSearchLandmarkNeverRenders(t *testing.T) {
	shop, _ := newTestShop(t)

	outcome, err := shop.Search(context.Background(), Args{"product_name": "milk"})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "Error searching for 'milk'")
	assert.NotEmpty(t, outcome.Message)
}

func TestSearchTermNeverAppearsInResults(t *testing.T) {
	shop, session := newTestShop(t)
	session.Add(browser.Link("Search for products"), &browsertest.FakeElement{})

	outcome, err := shop.Search(context.Background(), Args{"product_name": "milk"})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "Error searching for 'milk'")
	// The term was still typed and submitted before the wait expired.
	assert.Equal(t, []string{"milk"}, session.Typed)
}

func TestSelectFirstProduct(t *testing.T) {
	shop, session := newTestShop(t)
	card := &browsertest.FakeElement{}
	session.Add(browser.Selector(".cursor-pointer"), card)

	outcome, err := shop.SelectFirstProduct(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Successfully selected the first product.", outcome.Message)
	assert.Equal(t, 1, card.Clicks)

	outcome, err = shop.SelectFirstProduct(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Success, "calling again just clicks again")
	assert.Equal(t, 2, card.Clicks)
}

func TestSelectFirstProductTimeout(t *testing.T) {
	shop, _ := newTestShop(t)

	outcome, err := shop.SelectFirstProduct(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "Error selecting the first product")
}

func TestAddToCart(t *testing.T) {
	shop, session := newTestShop(t)
	btn := &browsertest.FakeElement{}
	session.Add(browser.Button("Add to Cart"), btn)

	outcome, err := shop.AddToCart(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Successfully added the product to the cart.", outcome.Message)
	assert.Equal(t, 1, btn.Clicks)
}

func TestAddToCartControlNeverAppears(t *testing.T) {
	shop, _ := newTestShop(t)

	outcome, err := shop.AddToCart(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "Error adding product to the cart")
}

func TestClosePopupsWithNoOverlays(t *testing.T) {
	shop, _ := newTestShop(t)

	outcome, err := shop.ClosePopups(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Success, "nothing to close is still a clean result")
	assert.Equal(t, "Closed 0 popups.", outcome.Message)
}

func TestClosePopupsForceClicksVisibleOverlays(t *testing.T) {
	shop, session := newTestShop(t)
	visible := &browsertest.FakeElement{}
	hidden := &browsertest.FakeElement{Hidden: true}
	session.Add(browser.Selector("button[class*='close']"), visible, hidden)
	modal := &browsertest.FakeElement{Covered: true} // covered overlays still get the script click
	session.Add(browser.Selector(".modal-close"), modal)

	outcome, err := shop.ClosePopups(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Closed 2 popups.", outcome.Message)
	assert.Equal(t, 1, visible.ScriptClicks)
	assert.Equal(t, 0, hidden.ScriptClicks)
	assert.Equal(t, 1, modal.ScriptClicks)
	assert.Equal(t, 0, visible.Clicks, "overlays are closed via script dispatch, not natural clicks")
}

func TestDeadSessionEscalatesDriverError(t *testing.T) {
	shop, session := newTestShop(t)
	session.Dead = true

	_, err := shop.Navigate(context.Background(), nil)
	require.Error(t, err)
	var derr *browser.DriverError
	assert.ErrorAs(t, err, &derr)

	_, err = shop.AddToCart(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &derr)
}
