package models

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultRecordOutcome(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"1.45", OutcomeMatch},
		{"", OutcomeMatch},
		{PriceNotFound, OutcomeNotFound},
		{PriceError, OutcomeError},
		{PriceUnavailable, OutcomeNoPrice},
	}
	for _, tt := range tests {
		r := ResultRecord{Name: "milk", Price: tt.price, Store: "ASDA"}
		assert.Equal(t, tt.want, r.Outcome(), "price %q", tt.price)
	}
}

func TestSentinelRecordsKeepTerm(t *testing.T) {
	assert.Equal(t, ResultRecord{Query: "oat milk", Name: "oat milk", Price: "Not Found", Store: "ASDA"}, NotFound("oat milk", "ASDA"))
	assert.Equal(t, ResultRecord{Query: "oat milk", Name: "oat milk", Price: "Error", Store: "Morrisons"}, Failed("oat milk", "Morrisons"))
}

func TestResultRecordForTerm(t *testing.T) {
	assert.Equal(t, NotFound("soya", "ASDA"), NotFound("Soya", "ASDA").ForTerm("soya"))
	assert.Equal(t, Failed("soya", "ASDA"), Failed("Soya", "ASDA").ForTerm("soya"))

	matched := ResultRecord{Query: "Soya", Name: "Soya Milk 1L", Price: "1.10", Store: "ASDA"}
	assert.Equal(t, ResultRecord{Query: "soya", Name: "Soya Milk 1L", Price: "1.10", Store: "ASDA"}, matched.ForTerm("soya"))
	assert.Equal(t, ResultRecord{Query: "soya", Name: "Soya Milk", Price: PriceUnavailable, Store: "ASDA"},
		ResultRecord{Query: "SOYA", Name: "Soya Milk", Price: PriceUnavailable, Store: "ASDA"}.ForTerm("soya"))
}

func TestResultRecordJSONOmitsQuery(t *testing.T) {
	b, err := json.Marshal(NotFound("milk", "ASDA"))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"milk","price":"Not Found","store":"ASDA"}`, string(b))
}

func TestScrapeRequestTerms(t *testing.T) {
	req := ScrapeRequest{Items: []Item{{Name: "milk"}, {Name: "bread"}, {Name: "milk"}}}
	assert.Equal(t, []string{"milk", "bread", "milk"}, req.Terms())
	assert.Empty(t, (&ScrapeRequest{}).Terms())
}

func TestScrapeError(t *testing.T) {
	err := NewScrapeError(ErrCodeNavigation, "navigation failed", io.ErrUnexpectedEOF)
	assert.Equal(t, "NAVIGATION_FAILED: navigation failed: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, &ErrorDetail{Code: ErrCodeNavigation, Message: "navigation failed"}, err.ToDetail())

	bare := NewScrapeError(ErrCodeTimeout, "timed out", nil)
	assert.Equal(t, "SCRAPE_TIMEOUT: timed out", bare.Error())
}
