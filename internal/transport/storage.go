// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const storagePrefix = "/storage/v1"

// signedURLKeys are the response fields the sign endpoint has been seen to use.
var signedURLKeys = []string{"signedURL", "signedUrl", "signed_url", "url"}

var errNoSignedURL = errors.New("sign response contains no url field")

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

// CreateSignedObjectURL asks the storage API for a read URL valid for
// ttlSeconds and returns it as one absolute URL.
func (c *Client) CreateSignedObjectURL(ctx context.Context, bucket, path string, ttlSeconds int) (string, error) {
	fields, err := DoJSON[map[string]any](ctx, c, Request{
		Method: http.MethodPost,
		Path:   storagePrefix + "/object/sign/" + escapeObjectPath(bucket) + "/" + escapeObjectPath(path),
	}, signRequest{ExpiresIn: ttlSeconds})
	if err != nil {
		return "", err
	}

	for _, key := range signedURLKeys {
		if s, ok := fields[key].(string); ok && s != "" {
			return normalizeSignedURL(c.baseURL, s), nil
		}
	}
	return "", &DecodingError{Err: errNoSignedURL}
}

// normalizeSignedURL resolves the three shapes the sign endpoint returns:
//
//	https://host/storage/v1/object/sign/b/p?token=t   absolute URL, kept
//	/object/sign/b/p?token=t                          absolute path missing the storage prefix
//	object/sign/b/p?token=t                           bare relative path
func normalizeSignedURL(base, raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(raw, "/") {
		if strings.HasPrefix(raw, storagePrefix+"/") {
			return base + raw
		}
		return base + storagePrefix + raw
	}
	if strings.HasPrefix(raw, strings.TrimPrefix(storagePrefix, "/")+"/") {
		return base + "/" + raw
	}
	return base + storagePrefix + "/" + raw
}

// UploadObject stores data at bucket/path, overwriting any existing object.
func (c *Client) UploadObject(ctx context.Context, bucket, path, contentType string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.Request(ctx, Request{
		Method: http.MethodPost,
		Path:   storagePrefix + "/object/" + escapeObjectPath(bucket) + "/" + escapeObjectPath(path),
		Body:   data,
		Headers: map[string]string{
			"Content-Type": contentType,
			"x-upsert":     "true",
		},
	})
	return err
}
