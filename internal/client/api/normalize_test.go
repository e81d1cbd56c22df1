package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string `json:"id"`
}

func TestDecodeList_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		keys      []string
		wantIDs   []string
		wantPagin Pagination
	}{
		{
			name:      "bare array",
			body:      `[{"id":"a"},{"id":"b"}]`,
			wantIDs:   []string{"a", "b"},
			wantPagin: Pagination{Page: 1, Limit: 2, Total: 2, TotalPages: 1},
		},
		{
			name:      "data array with top-level pagination",
			body:      `{"data":[{"id":"a"}],"page":2,"totalPages":3,"total":21}`,
			wantIDs:   []string{"a"},
			wantPagin: Pagination{Page: 2, Limit: 1, Total: 21, TotalPages: 3, HasNext: true, HasPrev: true},
		},
		{
			name:      "data and pagination object",
			body:      `{"data":[{"id":"a"}],"pagination":{"page":1,"limit":10,"total":11}}`,
			wantIDs:   []string{"a"},
			wantPagin: Pagination{Page: 1, Limit: 10, Total: 11, TotalPages: 2, HasNext: true},
		},
		{
			name:      "nested resource key",
			body:      `{"data":{"orders":[{"id":"o1"}],"pagination":{"page":3,"totalPages":3,"limit":5,"total":11}}}`,
			keys:      []string{"orders"},
			wantIDs:   []string{"o1"},
			wantPagin: Pagination{Page: 3, Limit: 5, Total: 11, TotalPages: 3, HasPrev: true},
		},
		{
			name:      "top-level resource key",
			body:      `{"products":[{"id":"p1"},{"id":"p2"}],"meta":{"currentPage":1,"perPage":2,"totalItems":4}}`,
			keys:      []string{"products"},
			wantIDs:   []string{"p1", "p2"},
			wantPagin: Pagination{Page: 1, Limit: 2, Total: 4, TotalPages: 2, HasNext: true},
		},
		{
			name:      "backend flags pass through",
			body:      `{"data":[{"id":"a"}],"page":1,"totalPages":1,"hasNext":true,"hasPrev":false}`,
			wantIDs:   []string{"a"},
			wantPagin: Pagination{Page: 1, Limit: 1, Total: 1, TotalPages: 1, HasNext: true},
		},
		{
			name:      "empty data",
			body:      `{"data":[],"total":0}`,
			wantIDs:   []string{},
			wantPagin: Pagination{Page: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := DecodeList[item](json.RawMessage(tt.body), tt.keys...)
			require.NoError(t, err)

			ids := make([]string, 0, len(page.Items))
			for _, it := range page.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPagin, page.Pagination)
		})
	}
}

func TestDecodeList_Errors(t *testing.T) {
	_, err := DecodeList[item](json.RawMessage(`"oops"`))
	require.Error(t, err)

	_, err = DecodeList[item](json.RawMessage(`{"message":"no list here"}`))
	require.Error(t, err)
}

func TestDecodeList_Null(t *testing.T) {
	page, err := DecodeList[item](nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.Pagination.HasNext)
}

func TestDecodeItem(t *testing.T) {
	tests := []struct {
		name string
		body string
		keys []string
		want string
	}{
		{"plain object", `{"id":"1"}`, nil, "1"},
		{"data envelope", `{"data":{"id":"2"}}`, nil, "2"},
		{"data and key", `{"data":{"product":{"id":"3"}}}`, []string{"product"}, "3"},
		{"key only", `{"product":{"id":"4"}}`, []string{"product"}, "4"},
		{"key missing falls back", `{"data":{"id":"5"}}`, []string{"product"}, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeItem[item](json.RawMessage(tt.body), tt.keys...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	_, err := DecodeItem[item](nil)
	require.Error(t, err)
}

func TestParams(t *testing.T) {
	p := Params{"page": "3", "status": "", "bad": "x"}
	assert.Equal(t, 3, p.Int("page", 1))
	assert.Equal(t, 1, p.Int("bad", 1))
	assert.Equal(t, 7, p.Int("missing", 7))

	v := p.values()
	assert.Equal(t, "3", v.Get("page"))
	assert.False(t, v.Has("status"))

	clone := p.Clone()
	clone["page"] = "4"
	assert.Equal(t, "3", p["page"])
}
