package models

// Price sentinels. Any other Price value is a normalized numeric string.
const (
	// PriceNotFound means no listing on the retailer's results page matched.
	PriceNotFound = "Not Found"

	// PriceError means the query failed (navigation, timeout, browser fault).
	PriceError = "Error"

	// PriceUnavailable means a listing matched but had no price element.
	PriceUnavailable = "N/A"
)

// Outcome labels used for logging and metrics.
const (
	OutcomeMatch    = "match"
	OutcomeNotFound = "not_found"
	OutcomeNoPrice  = "no_price"
	OutcomeError    = "error"
)

// ResultRecord is the uniform per-(term, retailer) output unit.
type ResultRecord struct {
	// Query is the search term this record answers. It is not serialized;
	// the API response carries only name, price and store.
	Query string `json:"-"`

	// Name is the matched listing's display name, or the search term on the
	// not-found and error paths.
	Name string `json:"name"`

	// Price is a normalized numeric string or one of the sentinels.
	Price string `json:"price"`

	// Store is the retailer that produced this record.
	Store string `json:"store"`
}

// NotFound builds the record for a retailer with no matching listing.
func NotFound(term, store string) ResultRecord {
	return ResultRecord{Query: term, Name: term, Price: PriceNotFound, Store: store}
}

// Failed builds the record for a query that failed.
func Failed(term, store string) ResultRecord {
	return ResultRecord{Query: term, Name: term, Price: PriceError, Store: store}
}

// ForTerm restamps a stored record for term. Records that echo the term
// (not found, error) get it as their name; matched listings keep theirs.
func (r ResultRecord) ForTerm(term string) ResultRecord {
	r.Query = term
	switch r.Outcome() {
	case OutcomeNotFound, OutcomeError:
		r.Name = term
	}
	return r
}

// Outcome classifies the record by its price field.
func (r ResultRecord) Outcome() string {
	switch r.Price {
	case PriceNotFound:
		return OutcomeNotFound
	case PriceError:
		return OutcomeError
	case PriceUnavailable:
		return OutcomeNoPrice
	default:
		return OutcomeMatch
	}
}
