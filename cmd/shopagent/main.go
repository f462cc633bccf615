package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/v0xg/shopagent/internal/agent"
	"github.com/v0xg/shopagent/internal/browser"
	"github.com/v0xg/shopagent/internal/planner"
	"github.com/v0xg/shopagent/internal/tools"
)

var (
	provider   string
	model      string
	headless   bool
	width      int
	height     int
	maxSteps   int
	homeURL    string
	postalCode string
	profileDir string
	verbose    bool
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "shopagent",
		Short: "Drive a grocery storefront with an AI planner",
		Long: `shopagent opens a real browser and lets an AI planner work through a
storefront one step at a time: it picks a browser tool, reads the outcome
message, looks at a screenshot, and decides what to do next.

Examples:
  shopagent shop "whole wheat bread"
  shopagent categories`,
	}

	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default: from env or openai)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "Run the browser headless")
	rootCmd.PersistentFlags().IntVar(&width, "width", 1000, "Viewport width")
	rootCmd.PersistentFlags().IntVar(&height, "height", 1300, "Viewport height")
	rootCmd.PersistentFlags().IntVar(&maxSteps, "max-steps", 0, "Step budget (default 20 for shop, 10 for categories)")
	rootCmd.PersistentFlags().StringVar(&homeURL, "url", "", "Storefront home URL override")
	rootCmd.PersistentFlags().StringVar(&profileDir, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")

	shopCmd := &cobra.Command{
		Use:   "shop <product>",
		Short: "Search for a product and add it to the cart",
		Args:  cobra.ExactArgs(1),
		RunE:  runShop,
	}
	shopCmd.Flags().StringVar(&postalCode, "pin", "", "Postal code for the location prompt")

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "Scrape the homepage category names",
		Args:  cobra.NoArgs,
		RunE:  runCategories,
	}

	rootCmd.AddCommand(shopCmd, categoriesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runShop(cmd *cobra.Command, args []string) error {
	product := args[0]

	instruction := fmt.Sprintf(`1. Navigate to the storefront.
2. Handle any location popup that may appear.
3. Search for '%s'.
4. Select the first product from the results.
5. Add the selected product to the cart.`, product)

	return runWorkflow(cmd, instruction, agent.DefaultShoppingSteps, func(shop *tools.Shop) *tools.Registry {
		return shop.ShoppingRegistry()
	})
}

func runCategories(cmd *cobra.Command, _ []string) error {
	instruction := `1. Navigate to the storefront homepage.
2. Scrape the category names from the homepage using the 'scrape_categories' tool.
3. Return them as final answer.`

	return runWorkflow(cmd, instruction, agent.DefaultScrapingSteps, func(shop *tools.Shop) *tools.Registry {
		return shop.ScrapeRegistry()
	})
}

func runWorkflow(cmd *cobra.Command, instruction string, defaultSteps int, registryFor func(*tools.Shop) *tools.Registry) error {
	log := newLogger()

	cfg := tools.DefaultConfig()
	if homeURL != "" {
		cfg.HomeURL = homeURL
	}
	if postalCode != "" {
		cfg.PostalCode = postalCode
	}

	budget := maxSteps
	if budget <= 0 {
		budget = defaultSteps
	}

	session, err := browser.Launch(browser.LaunchOptions{
		Headless:   headless,
		Width:      width,
		Height:     height,
		ProfileDir: profileDir,
	})
	if err != nil {
		return fmt.Errorf("browser launch failed: %w", err)
	}
	defer session.Close()

	shop := tools.NewShop(cfg, session, log)
	registry := registryFor(shop)

	pl, err := planner.New(resolveProvider(), model, registry.Catalog())
	if err != nil {
		return fmt.Errorf("planner init failed: %w", err)
	}

	capturer := agent.NewCapturer(session, log)
	loop := agent.NewLoop(pl, registry, capturer, budget, log)

	result, _, err := loop.Run(cmd.Context(), instruction)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Println("\n--- Agent Final Result ---")
	fmt.Println(result.Answer)
	if !result.Terminal {
		fmt.Printf("(step budget of %d exhausted; best-effort result)\n", budget)
	}
	return nil
}

func resolveProvider() string {
	if provider != "" {
		return provider
	}
	if env := os.Getenv("SHOPAGENT_PROVIDER"); env != "" {
		return env
	}
	return "openai"
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
