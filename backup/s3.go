package backup

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/docdb"
)

// S3Config locates the backup bucket and its credentials.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// S3 keeps backups as objects in one bucket of an S3-compatible store.
type S3 struct {
	cl     *minio.Client
	bucket string
	log    *zap.Logger
}

// NewS3 builds a client for cfg. It does not contact the server.
func NewS3(cfg S3Config, log *zap.Logger) (*S3, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &S3{cl: cl, bucket: cfg.Bucket, log: log}, nil
}

func (s *S3) Save(ctx context.Context, name string, snap docdb.Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return err
	}
	_, err := s.cl.PutObject(ctx, s.bucket, name, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload backup %s: %w", name, err)
	}
	return nil
}

func (s *S3) Load(ctx context.Context, name string) (docdb.Snapshot, error) {
	obj, err := s.cl.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download backup %s: %w", name, err)
	}
	defer obj.Close()
	// GetObject is lazy; a missing object surfaces on the first read.
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("download backup %s: %w", name, err)
	}
	return Decode(obj, s.log)
}

// Remove deletes a backup object.
func (s *S3) Remove(ctx context.Context, name string) error {
	return s.cl.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
}
