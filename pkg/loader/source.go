package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/blueprint/pkg/errors"
)

const (
	// StdinSource reads the document from standard input.
	StdinSource = "-"
	// S3Scheme prefixes documents stored in S3.
	S3Scheme = "s3://"
)

// S3API is the subset of the S3 client the loader uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures NewS3Client.
type S3Config struct {
	Region string
	// Endpoint overrides the service endpoint, for S3-compatible stores.
	// Path-style addressing is used when it is set.
	Endpoint string
}

// NewS3Client creates an S3 client with credentials from the standard AWS
// environment variables.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(ctx context.Context) (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}, nil
}

// ParseS3URL splits "s3://bucket/key" into bucket and key.
func ParseS3URL(src string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(src, S3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%q is not an s3 url", src)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%q must have the form s3://bucket/key", src)
	}
	return bucket, key, nil
}

// Read returns the raw document named by src: a file path, StdinSource, or
// an s3:// url.
func (l *Loader) Read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == StdinSource:
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, errors.New("B060").WithDetail("reading standard input").Wrap(err)
		}
		return data, nil

	case strings.HasPrefix(src, S3Scheme):
		return l.readS3(ctx, src)

	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.New("B060").WithDetail("reading " + src).Wrap(err)
		}
		return data, nil
	}
}

func (l *Loader) readS3(ctx context.Context, src string) ([]byte, error) {
	bucket, key, err := ParseS3URL(src)
	if err != nil {
		return nil, errors.New("B060").Wrap(err)
	}
	if l.s3 == nil {
		return nil, errors.New("B060").WithDetail("no S3 client configured for " + src)
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("B060").WithDetail("fetching " + src).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New("B060").WithDetail("reading " + src).Wrap(err)
	}
	l.logger.Debug("document fetched", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}
