package retailer

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// compile parses every non-empty locator so a typo fails at startup rather
// than silently matching nothing at query time.
func (l Locators) compile() error {
	roles := []struct {
		role, sel string
	}{
		{"listing", l.Listing},
		{"display_name", l.DisplayName},
		{"detail_link", l.DetailLink},
		{"price", l.Price},
		{"brand", l.Brand},
	}
	for _, r := range roles {
		if r.sel == "" {
			continue
		}
		if _, err := cascadia.Compile(r.sel); err != nil {
			return fmt.Errorf("locator %q (%s): %w", r.role, r.sel, err)
		}
	}
	return nil
}
