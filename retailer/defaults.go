package retailer

// DefaultProfiles returns the built-in UK grocery retailers.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:      "ASDA",
			SearchURL: "https://groceries.asda.com/search/{term}",
			Locators: Locators{
				Listing:     ".co-item",
				DisplayName: "a",
				DetailLink:  "a",
				Price:       "strong.co-product__price",
				Brand:       ".co-product__brand",
			},
		},
		{
			Name:      "Morrisons",
			SearchURL: "https://groceries.morrisons.com/search?q={term}&sort=relevance",
			Locators: Locators{
				Listing:     "div[data-test='fop-body']",
				DisplayName: "h3[data-test='fop-title']",
				DetailLink:  "a[data-test='fop-product-link']",
				Price:       "span[data-test='fop-price']",
			},
		},
	}
}
