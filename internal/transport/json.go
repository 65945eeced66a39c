// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package transport

import (
	"context"

	"github.com/goccy/go-json"
)

// EncodeJSON marshals v for use as a request body.
func EncodeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	return data, nil
}

// DecodeJSON unmarshals a response body into T.
func DecodeJSON[T any](data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &DecodingError{Err: err}
	}
	return out, nil
}

// SendJSON encodes payload (when non-nil) as the body of req and performs it.
func (c *Client) SendJSON(ctx context.Context, req Request, payload any) ([]byte, error) {
	if payload != nil {
		body, err := EncodeJSON(payload)
		if err != nil {
			return nil, err
		}
		req.Body = body
	}
	return c.Request(ctx, req)
}

// DoJSON performs req with an optional JSON payload and decodes the response into T.
//
//	rows, err := transport.DoJSON[[]models.DirectoryIdentity](ctx, client, req, body)
func DoJSON[T any](ctx context.Context, c *Client, req Request, payload any) (T, error) {
	data, err := c.SendJSON(ctx, req, payload)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeJSON[T](data)
}
