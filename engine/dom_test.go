package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentQueryAllKeepsOrder(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<div class="p">a</div><section><div class="p">b</div></section><div class="p">c</div>`))
	require.NoError(t, err)

	els := doc.QueryAll("div.p")
	require.Len(t, els, 3)

	var got []string
	for _, el := range els {
		text, err := el.Text(context.Background())
		require.NoError(t, err)
		got = append(got, text)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestElementTextIsTextContent(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<p class="price">  <span>£</span>3.<b>50</b> each </p>`))
	require.NoError(t, err)

	els := doc.QueryAll("p.price")
	require.Len(t, els, 1)
	text, err := els[0].Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "  £3.50 each ", text)
}

func TestElementQueryOneFirstMatch(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<li><a href="/one">1</a><a href="/two">2</a></li>`))
	require.NoError(t, err)

	li := doc.QueryAll("li")[0]
	a, ok, err := li.QueryOne(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, ok)
	href, ok, err := a.Attr(context.Background(), "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/one", href)

	_, ok, err = a.Attr(context.Background(), "title")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = li.QueryOne(context.Background(), "span")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentTitle(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<html><head><title>Results</title></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Results", doc.Title())
	assert.True(t, doc.Has("title"))
	assert.False(t, doc.Has("li"))
}
