package models

// ScrapeRequest is the payload for POST /api/scrape.
type ScrapeRequest struct {
	// Items is the ordered shopping list. Required; an empty list is
	// accepted and yields an empty result array.
	Items []Item `json:"items" binding:"required,dive"`
}

// Item is one entry of the shopping list.
type Item struct {
	// Name is the search term sent to every retailer.
	Name string `json:"name" binding:"required"`
}

// Terms flattens the items into the ordered list of search terms.
func (r *ScrapeRequest) Terms() []string {
	terms := make([]string, len(r.Items))
	for i, it := range r.Items {
		terms[i] = it.Name
	}
	return terms
}
