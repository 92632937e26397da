package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ethpandaops/benchviz/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putObject struct {
	body         string
	contentType  string
	storageClass s3types.StorageClass
	acl          s3types.ObjectCannedACL
}

type fakePut struct {
	mu      sync.Mutex
	objects map[string]putObject
	err     error
}

func (f *fakePut) PutObject(
	_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.objects == nil {
		f.objects = make(map[string]putObject)
	}

	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = putObject{
		body:         string(body),
		contentType:  aws.ToString(params.ContentType),
		storageClass: params.StorageClass,
		acl:          params.ACL,
	}

	return &s3.PutObjectOutput{}, nil
}

func (f *fakePut) keys() []string {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func newTestUploader(cfg *config.S3UploadConfig, client putAPI) *s3Uploader {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return &s3Uploader{log: log, cfg: cfg, client: client}
}

func TestResolvePrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		baseName string
		want     string
	}{
		{
			name:     "default prefix",
			prefix:   "",
			baseName: "report",
			want:     "reports/report",
		},
		{
			name:     "custom prefix",
			prefix:   "store-v2/benchmarks",
			baseName: "2025-08-29",
			want:     "store-v2/benchmarks/2025-08-29",
		},
		{
			name:     "slashes stripped",
			prefix:   "/my-prefix/",
			baseName: "run123",
			want:     "my-prefix/run123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &s3Uploader{
				cfg: &config.S3UploadConfig{Prefix: tt.prefix},
			}
			assert.Equal(t, tt.want, u.resolvePrefix(tt.baseName))
		})
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantPrefix string
	}{
		{name: "json file", path: "report/summary.json", wantPrefix: "application/json"},
		{name: "no extension", path: "report/Makefile", wantPrefix: "application/octet-stream"},
		{name: "png chart", path: "report/charts/ops.png", wantPrefix: "image/png"},
		{name: "svg chart", path: "report/charts/ops.svg", wantPrefix: "image/svg+xml"},
		{name: "markdown", path: "report/README.md", wantPrefix: "text/markdown"},
		{name: "csv table", path: "report/a/versions.csv", wantPrefix: "text/csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, detectContentType(tt.path), tt.wantPrefix)
		})
	}
}

func TestUpload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "charts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Benchmark Results\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "charts", "ops.svg"), []byte("<svg/>"), 0o644))

	fake := &fakePut{}
	u := newTestUploader(&config.S3UploadConfig{
		Bucket:       "bench",
		Prefix:       "nightly",
		StorageClass: "STANDARD_IA",
		ACL:          "public-read",
	}, fake)

	location, err := u.Upload(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "s3://bench/nightly/report", location)

	assert.Equal(t, []string{
		"bench/nightly/report/README.md",
		"bench/nightly/report/charts/ops.svg",
	}, fake.keys())

	readme := fake.objects["bench/nightly/report/README.md"]
	assert.Equal(t, "# Benchmark Results\n", readme.body)
	assert.Contains(t, readme.contentType, "text/markdown")
	assert.Equal(t, s3types.StorageClass("STANDARD_IA"), readme.storageClass)
	assert.Equal(t, s3types.ObjectCannedACL("public-read"), readme.acl)
}

func TestUpload_Errors(t *testing.T) {
	u := newTestUploader(&config.S3UploadConfig{Bucket: "bench"}, &fakePut{})

	_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644))

	denied := errors.New("access denied")
	u = newTestUploader(&config.S3UploadConfig{Bucket: "bench"}, &fakePut{err: denied})

	_, err = u.Upload(context.Background(), dir)
	require.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), "a.csv")
}

func TestPreflight(t *testing.T) {
	fake := &fakePut{}
	u := newTestUploader(&config.S3UploadConfig{Bucket: "bench"}, fake)

	require.NoError(t, u.Preflight(context.Background()))
	assert.Equal(t, []string{"bench/reports/.benchviz-write-test"}, fake.keys())

	u = newTestUploader(&config.S3UploadConfig{Bucket: "bench"}, &fakePut{err: errors.New("no such bucket")})
	err := u.Preflight(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bench")
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(logrus.New(), &config.S3UploadConfig{})
	require.ErrorIs(t, err, config.ErrConfiguration)

	u, err := NewS3Uploader(logrus.New(), &config.S3UploadConfig{Bucket: "bench"})
	require.NoError(t, err)
	assert.NotNil(t, u)
}
