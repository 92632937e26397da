package source

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/ethpandaops/benchviz/pkg/config"
	"github.com/sirupsen/logrus"
)

// defaultRegion is used when the configuration names none.
const defaultRegion = "us-east-1"

// s3API is the subset of the S3 client used by the source.
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Source reads logs stored under a bucket prefix.
type s3Source struct {
	log    logrus.FieldLogger
	client s3API
	bucket string
	prefix string
	// key is set when the location names a single object.
	key string
}

var _ Source = (*s3Source)(nil)

// NewS3 creates a source over an s3://bucket/prefix location.
func NewS3(log logrus.FieldLogger, location string, cfg config.S3ClientConfig) (Source, error) {
	bucket, prefix, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	src := &s3Source{
		log:    log.WithField("component", "s3-source"),
		client: NewS3Client(cfg),
		bucket: bucket,
		prefix: prefix,
	}

	if key := strings.TrimSuffix(prefix, "/"); benchlog.IsLogFile(key) {
		src.key = key
		src.prefix = ""
	}

	return src, nil
}

// ParseS3Location splits s3://bucket/prefix. A non-empty prefix is returned
// with a trailing slash so that it only matches whole path segments.
func ParseS3Location(location string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(location, S3Scheme)
	if !ok {
		return "", "", fmt.Errorf("location %q is not an %s URL", location, S3Scheme)
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("location %q has no bucket", location)
	}

	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return bucket, prefix, nil
}

// NewS3Client constructs an S3 client from static connection settings.
func NewS3Client(cfg config.S3ClientConfig) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			} else {
				o.Region = defaultRegion
			}

			if cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.EndpointURL)
			}

			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}

			if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
			}
		},
	}

	return s3.New(s3.Options{}, opts...)
}

func (s *s3Source) Location() string {
	if s.key != "" {
		return S3Scheme + s.bucket + "/" + s.key
	}

	return S3Scheme + s.bucket + "/" + s.prefix
}

func (s *s3Source) SingleFile() bool {
	return s.key != ""
}

func (s *s3Source) List(ctx context.Context) ([]string, error) {
	if s.key != "" {
		return []string{s.key}, nil
	}

	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects under s3://%s/%s: %w", s.bucket, s.prefix, err)
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	slices.Sort(keys)

	s.log.WithFields(logrus.Fields{
		"bucket":  s.bucket,
		"prefix":  s.prefix,
		"objects": len(keys),
	}).Debug("Listed results prefix")

	return keys, nil
}

func (s *s3Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.key != "" && key != s.key {
		return nil, fmt.Errorf("key %q is not %q", key, s.key)
	}

	if !strings.HasPrefix(key, s.prefix) {
		return nil, fmt.Errorf("key %q is outside prefix %q", key, s.prefix)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object %q: %w", key, err)
	}

	return out.Body, nil
}
