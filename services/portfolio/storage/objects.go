// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// resumeObjectPath returns the bucket path for a user's resume.
func resumeObjectPath(userID string) string {
	return "resumes/" + userID + ".pdf"
}

// ObjectStore holds uploaded resume files in a GCS bucket.
type ObjectStore struct {
	client *storage.Client
	bucket string
}

// NewObjectStore creates an object store for the given bucket.
//
// saKeyPath optionally points at a service account key file; when empty the
// client uses application default credentials.
func NewObjectStore(ctx context.Context, bucket, saKeyPath string) (*ObjectStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket must not be empty")
	}
	var opts []option.ClientOption
	if saKeyPath != "" {
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &ObjectStore{client: client, bucket: bucket}, nil
}

// Close releases the underlying GCS client.
func (o *ObjectStore) Close() error {
	return o.client.Close()
}

// PutResume uploads a user's resume and returns its public URL.
func (o *ObjectStore) PutResume(ctx context.Context, userID string, r io.Reader, contentType string) (string, error) {
	obj := o.client.Bucket(o.bucket).Object(resumeObjectPath(userID))
	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, r); err != nil {
		return "", fmt.Errorf("failed to copy resume to GCS object %s: %w", obj.ObjectName(), err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", obj.ObjectName(), err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", o.bucket, obj.ObjectName()), nil
}

// GetResume downloads a user's stored resume.
func (o *ObjectStore) GetResume(ctx context.Context, userID string) ([]byte, error) {
	obj := o.client.Bucket(o.bucket).Object(resumeObjectPath(userID))
	reader, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("resume for %s: %w", userID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %s: %w", obj.ObjectName(), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", obj.ObjectName(), err)
	}
	return data, nil
}

// DeleteResume removes a user's stored resume. Missing objects are not an
// error.
func (o *ObjectStore) DeleteResume(ctx context.Context, userID string) error {
	obj := o.client.Bucket(o.bucket).Object(resumeObjectPath(userID))
	err := obj.Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}
