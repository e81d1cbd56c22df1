package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

func (p Params) values() url.Values {
	if len(p) == 0 {
		return nil
	}
	v := make(url.Values, len(p))
	for k, val := range p {
		if val == "" {
			continue
		}
		v.Set(k, val)
	}
	return v
}

func escape(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

func requireID(id, what string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("%s ID is required", what)
	}
	return nil
}

func getList[T any](ctx context.Context, c *Client, path string, params Params, keys ...string) (Page[T], error) {
	resp, err := c.Request(ctx, path, RequestOptions{Query: params.values()})
	if err != nil {
		return Page[T]{}, err
	}
	page, err := DecodeList[T](resp.JSON, keys...)
	if err != nil {
		return page, decodeError(err)
	}
	return page, nil
}

func getItem[T any](ctx context.Context, c *Client, path string, keys ...string) (T, error) {
	return send[T](ctx, c, http.MethodGet, path, nil, keys...)
}

func send[T any](ctx context.Context, c *Client, method, path string, body any, keys ...string) (T, error) {
	var zero T
	resp, err := c.Request(ctx, path, RequestOptions{Method: method, Body: body})
	if err != nil {
		return zero, err
	}
	item, err := DecodeItem[T](resp.JSON, keys...)
	if err != nil {
		return zero, decodeError(err)
	}
	return item, nil
}

func remove(ctx context.Context, c *Client, path string) error {
	_, err := c.Request(ctx, path, RequestOptions{Method: http.MethodDelete})
	return err
}
