package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, Limit: 10}},
		{"explicit", "?page=3&limit=25", Params{Page: 3, Limit: 25}},
		{"limit capped", "?limit=500", Params{Page: 1, Limit: MaxLimit}},
		{"zero page", "?page=0", Params{Page: 1, Limit: 10}},
		{"negative limit", "?limit=-4", Params{Page: 1, Limit: 10}},
		{"garbage", "?page=abc&limit=x", Params{Page: 1, Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil)
			assert.Equal(t, tt.want, FromRequest(r))
		})
	}
}

func TestParams_Skip(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Skip())
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Skip())
}

func TestNewLinks(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		total    int64
		wantNext *PageRef
		wantPrev *PageRef
	}{
		{"single page", Params{Page: 1, Limit: 10}, 4, nil, nil},
		{"exact fit", Params{Page: 1, Limit: 10}, 10, nil, nil},
		{"first of many", Params{Page: 1, Limit: 10}, 11, &PageRef{Page: 2, Limit: 10}, nil},
		{"middle", Params{Page: 2, Limit: 5}, 14, &PageRef{Page: 3, Limit: 5}, &PageRef{Page: 1, Limit: 5}},
		{"last", Params{Page: 3, Limit: 5}, 14, nil, &PageRef{Page: 2, Limit: 5}},
		{"beyond end", Params{Page: 9, Limit: 5}, 14, nil, &PageRef{Page: 8, Limit: 5}},
		{"empty", Params{Page: 1, Limit: 10}, 0, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := NewLinks(tt.params, tt.total)
			assert.Equal(t, tt.wantNext, links.Next)
			assert.Equal(t, tt.wantPrev, links.Prev)
		})
	}
}

func TestLinks_JSONOmitsMissingPages(t *testing.T) {
	b, err := json.Marshal(NewLinks(Params{Page: 1, Limit: 10}, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	b, err = json.Marshal(NewLinks(Params{Page: 2, Limit: 1}, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"next":{"page":3,"limit":1},"prev":{"page":1,"limit":1}}`, string(b))
}
