package upload

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ethpandaops/benchviz/pkg/config"
	"github.com/ethpandaops/benchviz/pkg/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	preflightKey      = ".benchviz-write-test"
	uploadConcurrency = 4
)

// putAPI is the subset of the S3 client used by the uploader.
type putAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Uploader implements Uploader for S3-compatible storage.
type s3Uploader struct {
	log    logrus.FieldLogger
	cfg    *config.S3UploadConfig
	client putAPI
}

// Ensure interface compliance.
var _ Uploader = (*s3Uploader)(nil)

// NewS3Uploader creates a new S3 uploader from the given configuration.
func NewS3Uploader(
	log logrus.FieldLogger,
	cfg *config.S3UploadConfig,
) (Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: upload bucket is required", config.ErrConfiguration)
	}

	return &s3Uploader{
		log:    log.WithField("component", "s3-uploader"),
		cfg:    cfg,
		client: source.NewS3Client(cfg.S3ClientConfig),
	}, nil
}

// Preflight verifies S3 connectivity by writing a small test object.
func (u *s3Uploader) Preflight(ctx context.Context) error {
	content := fmt.Sprintf("benchviz write test: %s", time.Now().UTC().Format(time.RFC3339))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(u.key(preflightKey)),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("writing test object to s3://%s: %w", u.cfg.Bucket, err)
	}

	return nil
}

// Upload walks localDir and uploads all files under the configured prefix.
// Files are uploaded in parallel; the first failure aborts the rest.
func (u *s3Uploader) Upload(ctx context.Context, localDir string) (string, error) {
	prefix := u.resolvePrefix(filepath.Base(localDir))

	var files []string

	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking directory %s: %w", localDir, err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for _, path := range files {
		g.Go(func() error {
			relPath, err := filepath.Rel(localDir, path)
			if err != nil {
				return fmt.Errorf("computing relative path: %w", err)
			}

			key := prefix + "/" + filepath.ToSlash(relPath)

			if err := u.uploadFile(gCtx, path, key); err != nil {
				return fmt.Errorf("uploading %s: %w", relPath, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	location := source.S3Scheme + u.cfg.Bucket + "/" + prefix

	u.log.WithFields(logrus.Fields{
		"files":    len(files),
		"location": location,
	}).Info("Upload completed")

	return location, nil
}

// uploadFile uploads a single file.
func (u *s3Uploader) uploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(detectContentType(localPath)),
	}

	if u.cfg.StorageClass != "" {
		input.StorageClass = s3types.StorageClass(u.cfg.StorageClass)
	}

	if u.cfg.ACL != "" {
		input.ACL = s3types.ObjectCannedACL(u.cfg.ACL)
	}

	u.log.WithField("key", key).Debug("Uploading file")

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("PutObject: %w", err)
	}

	return nil
}

// resolvePrefix builds the key prefix for a report directory.
func (u *s3Uploader) resolvePrefix(baseName string) string {
	return u.key(baseName)
}

// key joins name under the configured prefix.
func (u *s3Uploader) key(name string) string {
	prefix := strings.Trim(u.cfg.Prefix, "/")
	if prefix == "" {
		prefix = config.DefaultUploadPrefix
	}

	return prefix + "/" + name
}

// detectContentType returns a MIME type based on file extension.
func detectContentType(path string) string {
	switch ext := filepath.Ext(path); ext {
	case "":
		return "application/octet-stream"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".csv":
		return "text/csv; charset=utf-8"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}

		return "application/octet-stream"
	}
}
