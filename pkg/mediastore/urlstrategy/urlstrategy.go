// Package urlstrategy derives public retrieval URLs from storage keys.
// URL construction is deliberately separate from the consistency logic:
// the service records whatever URL the configured strategy produces and
// never recomputes it.
package urlstrategy

import (
	"context"
	"fmt"
	"strings"
)

// Strategy defines the interface for URL generation strategies
type Strategy interface {
	// PublicURL returns the fully-qualified retrieval URL for a storage key.
	PublicURL(ctx context.Context, objectKey string) (string, error)
}

// S3Public generates virtual-hosted-style S3 URLs:
// https://{bucket}.s3.{region}.amazonaws.com/{key}
type S3Public struct {
	Bucket string
	Region string
}

// NewS3Public creates a new S3 public URL strategy
func NewS3Public(bucket, region string) *S3Public {
	return &S3Public{Bucket: bucket, Region: region}
}

func (s *S3Public) PublicURL(ctx context.Context, objectKey string) (string, error) {
	if s.Bucket == "" || s.Region == "" {
		return "", fmt.Errorf("s3 url strategy requires bucket and region")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, objectKey), nil
}

// CDN generates URLs that point at a CDN or any other host serving the
// bucket contents under a fixed prefix.
type CDN struct {
	BaseURL string
}

// NewCDN creates a new CDN URL strategy
func NewCDN(baseURL string) *CDN {
	return &CDN{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *CDN) PublicURL(ctx context.Context, objectKey string) (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	return fmt.Sprintf("%s/%s", s.BaseURL, objectKey), nil
}
