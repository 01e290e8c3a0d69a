package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// AttachmentFetcher resolves attachment refs for outbound email: inline
// data: URLs, s3:// objects, and plain http(s) URLs.
type AttachmentFetcher struct {
	s3     *Client
	client *resty.Client
}

func NewAttachmentFetcher(s3 *Client) *AttachmentFetcher {
	return &AttachmentFetcher{
		s3:     s3,
		client: resty.New().SetTimeout(15 * time.Second),
	}
}

// Fetch returns the attachment bytes and content type for ref.
func (f *AttachmentFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURL(ref)
	case strings.HasPrefix(ref, "s3://"):
		if f.s3 == nil {
			return nil, "", errors.New("s3 storage not configured")
		}
		return f.s3.GetObject(ctx, ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		resp, err := f.client.R().SetContext(ctx).Get(ref)
		if err != nil {
			return nil, "", err
		}
		if resp.IsError() {
			return nil, "", fmt.Errorf("attachment fetch returned %d", resp.StatusCode())
		}
		return resp.Body(), resp.Header().Get("Content-Type"), nil
	}
	return nil, "", fmt.Errorf("unsupported attachment ref %q", ref)
}

func decodeDataURL(ref string) ([]byte, string, error) {
	rest := strings.TrimPrefix(ref, "data:")
	idx := strings.Index(rest, ",")
	if idx < 0 {
		return nil, "", errors.New("malformed data url")
	}
	meta, payload := rest[:idx], rest[idx+1:]

	contentType := strings.TrimSuffix(meta, ";base64")
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", err
		}
		return data, contentType, nil
	}
	return []byte(payload), contentType, nil
}
