package publish

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-twobounce/pkg/core"
)

// UploadTimeout bounds a single object upload
const UploadTimeout = 30 * time.Second

// Config holds S3 connection settings. An empty Bucket disables publishing.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // Custom endpoint for S3-compatible stores (optional)
	AccessKey string // Static credentials; empty uses the default chain
	SecretKey string
	Prefix    string // Key prefix under which runs are stored
}

// Enabled reports whether a bucket is configured
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// DefaultRegion is used when no region is configured
const DefaultRegion = "us-east-1"

// ConfigFromEnv reads TWOBOUNCE_S3_* settings through getenv (usually os.Getenv)
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Bucket:    getenv("TWOBOUNCE_S3_BUCKET"),
		Region:    getenv("TWOBOUNCE_S3_REGION"),
		Endpoint:  getenv("TWOBOUNCE_S3_ENDPOINT"),
		AccessKey: getenv("TWOBOUNCE_S3_ACCESS_KEY"),
		SecretKey: getenv("TWOBOUNCE_S3_SECRET_KEY"),
		Prefix:    getenv("TWOBOUNCE_S3_PREFIX"),
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	return cfg
}

// S3Publisher uploads run artifacts to an S3 bucket
type S3Publisher struct {
	client s3iface.S3API
	bucket string
	prefix string
	logger core.Logger
}

// NewS3Publisher opens an S3 session from cfg
func NewS3Publisher(cfg Config, logger core.Logger) (*S3Publisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("no S3 bucket configured")
	}

	s3Config := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		s3Config.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		s3Config.Endpoint = aws.String(cfg.Endpoint)
		s3Config.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return NewPublisher(s3.New(sess), cfg.Bucket, cfg.Prefix, logger), nil
}

// NewPublisher wraps an existing S3 client
func NewPublisher(client s3iface.S3API, bucket, prefix string, logger core.Logger) *S3Publisher {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &S3Publisher{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// NewRunID returns an identifier for a run started at t. IDs sort by start
// time to the millisecond; a random suffix separates runs started together.
func NewRunID(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%03d-%08x", t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond), rand.Uint32())
}

// Key returns the object key of a run artifact
func (p *S3Publisher) Key(runID, name string) string {
	return path.Join(p.prefix, runID, name)
}

// Upload stores data under key
func (p *S3Publisher) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	size := int64(len(data))
	_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	p.logger.Printf("Uploaded s3://%s/%s (%d bytes)\n", p.bucket, key, size)
	return nil
}

// PublishFiles uploads files under <prefix>/<runID>/, keyed by their path
// relative to baseDir. It returns the keys written.
func (p *S3Publisher) PublishFiles(ctx context.Context, runID, baseDir string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(baseDir, file)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(file)
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return keys, fmt.Errorf("failed to read artifact: %w", err)
		}

		key := p.Key(runID, filepath.ToSlash(rel))
		if err := p.Upload(ctx, key, data, contentType(file)); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
