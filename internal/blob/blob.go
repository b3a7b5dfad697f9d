// Package blob uploads rendered report artifacts to an HTTP blob store and
// returns their publicly resolvable URLs.
package blob

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured is returned when no backing bucket is configured.
var ErrNotConfigured = errors.New("blob storage is not configured")

// Uploader pushes local files to a bucket on an HTTP blob endpoint.
type Uploader struct {
	endpoint string
	bucket   string
	rest     *resty.Client
}

func New(endpoint, bucket string, timeout time.Duration) *Uploader {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Uploader{endpoint: strings.TrimRight(endpoint, "/"), bucket: bucket, rest: r}
}

// Upload PUTs the file at path to bucket/destination and returns the public
// URL of the stored object.
func (u *Uploader) Upload(path, destination string) (string, error) {
	if u.endpoint == "" || u.bucket == "" {
		return "", ErrNotConfigured
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, destination)
	resp, err := u.rest.R().
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Put(url)
	if err != nil {
		return "", fmt.Errorf("blob upload: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("blob upload: %s %s", resp.Status(), resp.String())
	}

	return url, nil
}
