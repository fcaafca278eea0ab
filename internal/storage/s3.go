// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for
// product and storefront images. It wraps the AWS SDK v2 and is configured
// for path-style access so MinIO, CEPH and hosted S3 all work.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Object is one entry returned by List.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Client wraps an S3 client bound to a single public bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	// Strip trailing slash from endpoint for consistent URL building.
	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Put stores an object with public-read ACL and returns its public URL.
func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
		CacheControl:  aws.String("public, max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return c.FileURL(key), nil
}

// Remove deletes an object. Deleting a missing key is not an error.
func (c *Client) Remove(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// RemoveURL deletes the object behind a public URL. It reports false,
// without touching the bucket, when the URL does not belong to it.
func (c *Client) RemoveURL(ctx context.Context, rawURL string) (bool, error) {
	key, ok := c.KeyFromURL(rawURL)
	if !ok {
		return false, nil
	}
	if err := c.Remove(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every object under prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	p := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s/%s: %w", c.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

// FileURL returns the public URL for a key.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	return baseURL(c.endpoint, c.bucket, c.publicURL) + key
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// KeyFromURL extracts the object key from a public file URL.
// Returns the key and true if the URL matches the storage URL pattern,
// or ("", false) if it doesn't belong to this storage.
func (c *Client) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(c.endpoint, c.bucket, c.publicURL, rawURL)
}

func baseURL(endpoint, bucket, publicURL string) string {
	if publicURL != "" {
		return publicURL + "/"
	}
	return endpoint + "/" + bucket + "/"
}

func keyFromURL(endpoint, bucket, publicURL, rawURL string) (string, bool) {
	// Strip query and fragment; CDNs append cache busters.
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}

	// Try publicURL prefix first (CDN or custom domain).
	prefixes := []string{endpoint + "/" + bucket + "/"}
	if publicURL != "" {
		prefixes = append([]string{publicURL + "/"}, prefixes...)
	}
	for _, prefix := range prefixes {
		if key, ok := strings.CutPrefix(rawURL, prefix); ok && key != "" {
			return key, true
		}
	}
	return "", false
}
