// Package retailer describes retailers as data: how to build a search URL
// and which locators identify a listing and its fields.
package retailer

import (
	"fmt"
	"net/url"
	"strings"
)

// TermPlaceholder marks where the search term goes in a SearchURL template.
const TermPlaceholder = "{term}"

// Locators are the structural CSS selectors for one retailer's results page.
// DisplayName, DetailLink, Price and Brand are evaluated inside a Listing.
type Locators struct {
	Listing     string `yaml:"listing" json:"listing"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	DetailLink  string `yaml:"detail_link,omitempty" json:"detail_link,omitempty"`
	Price       string `yaml:"price" json:"price"`
	Brand       string `yaml:"brand,omitempty" json:"brand,omitempty"`
}

// Profile is the declarative description of one retailer.
type Profile struct {
	Name      string   `yaml:"name" json:"name"`
	SearchURL string   `yaml:"search_url" json:"search_url"`
	Locators  Locators `yaml:"locators" json:"locators"`
}

// SearchURLFor builds the search-results URL for term. The term is escaped
// as a path segment when the placeholder precedes the query string and as a
// query value otherwise.
func (p Profile) SearchURLFor(term string) string {
	idx := strings.Index(p.SearchURL, TermPlaceholder)
	if idx < 0 {
		return p.SearchURL
	}

	escaped := url.PathEscape(term)
	if q := strings.IndexByte(p.SearchURL, '?'); q >= 0 && q < idx {
		escaped = url.QueryEscape(term)
	}
	return p.SearchURL[:idx] + escaped + p.SearchURL[idx+len(TermPlaceholder):]
}

// validate checks the template and the mandatory locators.
func (p Profile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("retailer name is empty")
	}
	if n := strings.Count(p.SearchURL, TermPlaceholder); n != 1 {
		return fmt.Errorf("%s: search_url must contain %s exactly once, found %d", p.Name, TermPlaceholder, n)
	}
	u, err := url.Parse(strings.Replace(p.SearchURL, TermPlaceholder, "x", 1))
	if err != nil {
		return fmt.Errorf("%s: invalid search_url: %w", p.Name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: search_url must be an absolute http(s) URL", p.Name)
	}

	required := map[string]string{
		"listing":      p.Locators.Listing,
		"display_name": p.Locators.DisplayName,
		"price":        p.Locators.Price,
	}
	for role, sel := range required {
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("%s: locator %q is required", p.Name, role)
		}
	}
	return p.Locators.compile()
}
