package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Pagination describes one page of a list endpoint.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is the canonical result of every list endpoint.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// Params are query parameters for list endpoints.
type Params map[string]string

// Clone returns a copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Int returns the integer value of key, or def when missing or malformed.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

type rawPagination struct {
	Page        *int  `json:"page"`
	CurrentPage *int  `json:"currentPage"`
	Limit       *int  `json:"limit"`
	PageSize    *int  `json:"pageSize"`
	PerPage     *int  `json:"perPage"`
	Total       *int  `json:"total"`
	TotalItems  *int  `json:"totalItems"`
	Count       *int  `json:"count"`
	TotalPages  *int  `json:"totalPages"`
	Pages       *int  `json:"pages"`
	HasNext     *bool `json:"hasNext"`
	HasPrev     *bool `json:"hasPrev"`
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func (r rawPagination) merge(other rawPagination) rawPagination {
	r.Page = firstInt(r.Page, r.CurrentPage, other.Page, other.CurrentPage)
	r.Limit = firstInt(r.Limit, r.PageSize, r.PerPage, other.Limit, other.PageSize, other.PerPage)
	r.Total = firstInt(r.Total, r.TotalItems, r.Count, other.Total, other.TotalItems, other.Count)
	r.TotalPages = firstInt(r.TotalPages, r.Pages, other.TotalPages, other.Pages)
	if r.HasNext == nil {
		r.HasNext = other.HasNext
	}
	if r.HasPrev == nil {
		r.HasPrev = other.HasPrev
	}
	return r
}

func (r rawPagination) resolve(count int) Pagination {
	p := Pagination{Page: 1, Limit: count, Total: count}
	if r.Page != nil && *r.Page > 0 {
		p.Page = *r.Page
	}
	if r.Limit != nil && *r.Limit > 0 {
		p.Limit = *r.Limit
	}
	if r.Total != nil && *r.Total >= 0 {
		p.Total = *r.Total
	}
	switch {
	case r.TotalPages != nil:
		p.TotalPages = *r.TotalPages
	case p.Limit > 0:
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	case p.Total > 0:
		p.TotalPages = 1
	}

	// Backend flags are authoritative when present.
	if r.HasNext != nil {
		p.HasNext = *r.HasNext
	} else {
		p.HasNext = p.Page < p.TotalPages
	}
	if r.HasPrev != nil {
		p.HasPrev = *r.HasPrev
	} else {
		p.HasPrev = p.Page > 1
	}
	return p
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func paginationFrom(obj map[string]json.RawMessage) rawPagination {
	var out rawPagination
	for _, key := range []string{"pagination", "meta"} {
		if v, ok := obj[key]; ok {
			var p rawPagination
			if err := json.Unmarshal(v, &p); err == nil {
				out = out.merge(p)
			}
		}
	}
	var top rawPagination
	if b, err := json.Marshal(obj); err == nil {
		_ = json.Unmarshal(b, &top)
	}
	return out.merge(top)
}

// findItems locates the item array inside obj, looking at the given keys and
// the conventional "items" and "results".
func findItems(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	candidates := append(append([]string{}, keys...), "items", "results")
	for _, k := range candidates {
		if v, ok := obj[k]; ok && isArray(v) {
			return v, true
		}
	}
	return nil, false
}

// DecodeList maps every list shape the backend has been seen to return into
// a Page. Accepted shapes: a bare array; {data:[...]}; {data:{<key>:[...]}};
// {<key>:[...]}; with pagination at the top level, in "pagination"/"meta",
// or inside the data object.
func DecodeList[T any](raw json.RawMessage, keys ...string) (Page[T], error) {
	var page Page[T]

	if isNull(raw) {
		page.Items = []T{}
		page.Pagination = rawPagination{}.resolve(0)
		return page, nil
	}

	var itemsRaw json.RawMessage
	var meta rawPagination

	if isArray(raw) {
		itemsRaw = raw
	} else {
		top, ok := asObject(raw)
		if !ok {
			return page, fmt.Errorf("unexpected list payload: %.64s", string(raw))
		}
		meta = paginationFrom(top)

		if data, ok := top["data"]; ok && isArray(data) {
			itemsRaw = data
		} else if inner, ok := asObject(data); ok {
			if v, found := findItems(inner, keys); found {
				itemsRaw = v
			}
			meta = meta.merge(paginationFrom(inner))
		}
		if itemsRaw == nil {
			v, found := findItems(top, keys)
			if !found {
				return page, fmt.Errorf("no item list in payload")
			}
			itemsRaw = v
		}
	}

	if err := json.Unmarshal(itemsRaw, &page.Items); err != nil {
		return page, fmt.Errorf("decode items: %w", err)
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	page.Pagination = meta.resolve(len(page.Items))
	return page, nil
}

// DecodeItem unwraps a single-resource payload: an optional "data" envelope
// and then, if present, one of keys (e.g. "product").
func DecodeItem[T any](raw json.RawMessage, keys ...string) (T, error) {
	var out T
	if isNull(raw) {
		return out, fmt.Errorf("empty payload")
	}

	body := raw
	if obj, ok := asObject(body); ok {
		if data, ok := obj["data"]; ok && !isNull(data) {
			body = data
		}
	}
	if obj, ok := asObject(body); ok {
		for _, k := range keys {
			if v, ok := obj[k]; ok && !isNull(v) {
				body = v
				break
			}
		}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode item: %w", err)
	}
	return out, nil
}
