package utils

import (
	"context"
	"io"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStorage uploads matching location images to a public bucket.
type SupabaseStorage struct {
	client *storage.Client
	bucket string
}

func NewSupabaseStorage(url, key, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		client: storage.NewClient(strings.TrimRight(url, "/")+"/storage/v1", key, nil),
		bucket: bucket,
	}
}

// Upload stores the object (overwriting) and returns its public URL.
func (s *SupabaseStorage) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := s.client.UploadFile(s.bucket, objectPath, r, options); err != nil {
		return "", err
	}

	publicURL := s.client.GetPublicUrl(s.bucket, objectPath)
	return publicURL.SignedURL, nil
}
