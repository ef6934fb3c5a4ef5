// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataresource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/pairstat/pairstat/disttab"
)

// A Store holds the files of one data resource.
type Store interface {
	// Reader opens the named file for reading.
	Reader(ctx context.Context, name string) (io.ReadCloser, error)

	// Writer creates or truncates the named file. The file is
	// complete once the writer is closed.
	Writer(ctx context.Context, name string) (io.WriteCloser, error)

	Close() error
}

// Open returns the Store at loc, which is either a local directory or
// a gs://bucket/prefix URL. opts configure the Cloud Storage client
// and are ignored for local directories.
func Open(ctx context.Context, loc string, opts ...option.ClientOption) (Store, error) {
	if rest, ok := strings.CutPrefix(loc, "gs://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("invalid Cloud Storage location %q", loc)
		}
		return OpenGCS(ctx, bucket, prefix, opts...)
	}
	return Dir(loc), nil
}

// ReadFrom reads the table stored at loc.
func ReadFrom(ctx context.Context, loc string, opts ...option.ClientOption) (*disttab.Table, error) {
	s, err := Open(ctx, loc, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	t, err := Read(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", loc, err)
	}
	return t, nil
}

// WriteTo stores t at loc.
func WriteTo(ctx context.Context, loc string, t *disttab.Table, opts ...option.ClientOption) error {
	s, err := Open(ctx, loc, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := Write(ctx, s, t); err != nil {
		return fmt.Errorf("writing %s: %w", loc, err)
	}
	return nil
}

// Dir is a Store in a local directory. Writers create the directory
// if needed.
type Dir string

func (d Dir) Reader(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(string(d), name))
}

func (d Dir) Writer(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(string(d), 0777); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(string(d), name))
}

func (d Dir) Close() error { return nil }

// GCS is a Store under a prefix of a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// OpenGCS returns a Store for the objects under prefix in bucket.
func OpenGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Cloud Storage client: %w", err)
	}
	return &GCS{client: client, bucket: client.Bucket(bucket), prefix: strings.Trim(prefix, "/")}, nil
}

func (g *GCS) object(name string) *storage.ObjectHandle {
	return g.bucket.Object(path.Join(g.prefix, name))
}

func (g *GCS) Reader(ctx context.Context, name string) (io.ReadCloser, error) {
	return g.object(name).NewReader(ctx)
}

func (g *GCS) Writer(ctx context.Context, name string) (io.WriteCloser, error) {
	w := g.object(name).NewWriter(ctx)
	if path.Ext(name) == ".json" {
		w.ContentType = "application/json"
	} else {
		w.ContentType = "application/x-ndjson"
	}
	return w, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
