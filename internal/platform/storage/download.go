// Package storage issues signed Cloud Storage download URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const (
	defaultExpiry = 15 * time.Minute
	// V4 signatures are valid for at most seven days.
	maxExpiry = 7 * 24 * time.Hour
)

var (
	errNoSigner      = errors.New("storage: signer is required")
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
	errExpiryTooLong = errors.New("storage: expiry exceeds permitted maximum")
)

// URLSigner generates V4 signed GET URLs for a bucket.
type URLSigner struct {
	signer Signer
	bucket string
	expiry time.Duration
	now    func() time.Time
}

// Option customises the URLSigner.
type Option func(*URLSigner)

// WithExpiry sets how long issued URLs stay valid.
func WithExpiry(d time.Duration) Option {
	return func(s *URLSigner) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithClock injects the clock used for expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *URLSigner) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewURLSigner constructs a signer for bucket.
func NewURLSigner(signer Signer, bucket string, opts ...Option) (*URLSigner, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	s := &URLSigner{signer: signer, bucket: bucket, expiry: defaultExpiry, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.expiry > maxExpiry {
		return nil, errExpiryTooLong
	}
	return s, nil
}

// DownloadURL signs a GET for object. filename sets a Content-Disposition attachment name when non-empty.
func (s *URLSigner) DownloadURL(ctx context.Context, object, filename string) (string, time.Time, error) {
	object = strings.TrimSpace(object)
	if object == "" {
		return "", time.Time{}, errInvalidObject
	}
	expires := s.now().Add(s.expiry)
	opts := &storage.SignedURLOptions{
		GoogleAccessID: s.signer.Email(),
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        expires,
		SignBytes: func(payload []byte) ([]byte, error) {
			return s.signer.SignBytes(ctx, payload)
		},
	}
	if filename != "" {
		opts.QueryParameters = url.Values{
			"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", filename)},
		}
	}
	signed, err := storage.SignedURL(s.bucket, object, opts)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("storage: sign download url: %w", err)
	}
	return signed, expires, nil
}
