// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds the connection settings of an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix is prepended to every object key.
	Prefix string
	// WebRoot is stripped from template paths before they become keys.
	WebRoot string
}

// S3Store keeps template content as objects in one bucket. It is
// configured for path-style access (required by CEPH/Hetzner).
type S3Store struct {
	s3      *s3.Client
	bucket  string
	prefix  string
	webRoot string
}

// NewS3Store creates an S3 content store with static credentials and
// path-style addressing.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 content store needs endpoint, credentials and bucket")
	}

	s3Client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(strings.TrimRight(cfg.Endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})

	return &S3Store{
		s3:      s3Client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		webRoot: cfg.WebRoot,
	}, nil
}

// Key maps a template file path to its object key.
func (c *S3Store) Key(p string) string {
	if c.webRoot != "" {
		if rel, err := filepath.Rel(c.webRoot, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	key := strings.TrimPrefix(filepath.ToSlash(p), "/")
	if c.prefix != "" {
		key = path.Join(c.prefix, key)
	}
	return key
}

// Read downloads the object for p. A missing object reports false.
func (c *S3Store) Read(ctx context.Context, p string) (string, bool, error) {
	key := c.Key(p)
	output, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("s3 download %s/%s: %w", c.bucket, key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return "", false, fmt.Errorf("s3 read body %s/%s: %w", c.bucket, key, err)
	}
	return string(data), true, nil
}

// Stage holds the content in memory. S3 replaces an object atomically,
// so the upload itself happens on Commit.
func (c *S3Store) Stage(_ context.Context, p, content string) (Staged, error) {
	return &s3Stage{store: c, key: c.Key(p), content: content}, nil
}

// Delete removes the object for p. Deleting a missing key succeeds.
func (c *S3Store) Delete(ctx context.Context, p string) error {
	key := c.Key(p)
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

func (c *S3Store) upload(ctx context.Context, key, content string) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          strings.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

type s3Stage struct {
	store   *S3Store
	key     string
	content string
}

func (s *s3Stage) Commit(ctx context.Context) error {
	return s.store.upload(ctx, s.key, s.content)
}

func (s *s3Stage) Abort() error { return nil }
