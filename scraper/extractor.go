package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/use-agent/shelfprice/engine"
	"github.com/use-agent/shelfprice/retailer"
)

// Match is the first listing whose display name contains the search term.
type Match struct {
	DisplayName string

	// PriceText is the trimmed, unnormalized price text. It is only
	// meaningful when HasPrice is true.
	PriceText string
	HasPrice  bool

	// Brand and Link are filled when the retailer defines those locators
	// and the listing carries them. They are diagnostic only.
	Brand string
	Link  string
}

// Extract scans the listings on a loaded page in document order and returns
// the first one whose display name matches term. ok is false when nothing
// matched, including when the page has no listings at all.
//
// Listings without a display name element are skipped. A missing price
// element is not an error; HasPrice is simply false.
func Extract(ctx context.Context, sess engine.Session, profile retailer.Profile, term string) (Match, bool, error) {
	loc := profile.Locators

	listings, err := sess.QueryAll(ctx, loc.Listing)
	if err != nil {
		return Match{}, false, fmt.Errorf("extract: listings: %w", err)
	}

	for _, listing := range listings {
		name, ok, err := optionalText(ctx, listing, loc.DisplayName)
		if err != nil {
			return Match{}, false, fmt.Errorf("extract: display name: %w", err)
		}
		if !ok || !MatchesTerm(name, term) {
			continue
		}

		m := Match{DisplayName: name}
		if m.PriceText, m.HasPrice, err = optionalText(ctx, listing, loc.Price); err != nil {
			return Match{}, false, fmt.Errorf("extract: price: %w", err)
		}

		// Optional fields never fail the match.
		if loc.Brand != "" {
			m.Brand, _, _ = optionalText(ctx, listing, loc.Brand)
		}
		if loc.DetailLink != "" {
			if link, found, _ := listing.QueryOne(ctx, loc.DetailLink); found {
				m.Link, _, _ = link.Attr(ctx, "href")
			}
		}
		return m, true, nil
	}
	return Match{}, false, nil
}

// optionalText returns the trimmed textContent of the first element under
// parent matching selector. ok is false when no element matched.
func optionalText(ctx context.Context, parent engine.Element, selector string) (string, bool, error) {
	el, ok, err := parent.QueryOne(ctx, selector)
	if err != nil || !ok {
		return "", false, err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(text), true, nil
}
