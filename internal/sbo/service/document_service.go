package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// DocumentService manages process attachments in object storage. Objects
// live under a per-process folder named by the solicitation number — the
// reason that field rejects filesystem-hostile characters. Uploading a file
// whose name already exists in the folder overwrites it.
type DocumentService struct {
	client  *minio.Client
	bucket  string
	linkTTL time.Duration
}

func NewDocumentService(client *minio.Client, bucket string) *DocumentService {
	return &DocumentService{
		client:  client,
		bucket:  bucket,
		linkTTL: time.Hour,
	}
}

// EnsureBucket creates the backing bucket if it does not exist yet.
func (s *DocumentService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func folder(p *entity.Process) string {
	return p.SolicitationNumber + "/"
}

// List returns the process's documents with presigned download links,
// newest first.
func (s *DocumentService) List(ctx context.Context, p *entity.Process) ([]entity.Document, error) {
	prefix := folder(p)
	var docs []entity.Document
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list documents for %s: %w", p.SolicitationNumber, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			continue
		}
		link, err := s.client.PresignedGetObject(ctx, s.bucket, obj.Key, s.linkTTL, url.Values{})
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", obj.Key, err)
		}
		docs = append(docs, entity.Document{
			Name:     name,
			Link:     link.String(),
			Modifier: obj.UserMetadata["X-Amz-Meta-Modifier"],
			Modified: obj.LastModified,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Modified.After(docs[j].Modified) })
	return docs, nil
}

// Upload stores (or overwrites) one document in the process folder.
func (s *DocumentService) Upload(ctx context.Context, p *entity.Process, name string, r io.Reader, size int64, contentType string, modifier entity.Person) (*entity.Document, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, ErrInvalidDocumentName
	}
	key := folder(p) + name
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"Modifier": modifier.Display},
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, opts); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.linkTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return &entity.Document{
		Name:     name,
		Link:     link.String(),
		Modifier: modifier.Display,
		Modified: time.Now().UTC(),
	}, nil
}

// Delete removes one document from the process folder.
func (s *DocumentService) Delete(ctx context.Context, p *entity.Process, name string) error {
	key := folder(p) + name
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
