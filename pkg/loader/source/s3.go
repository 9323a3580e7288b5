package source

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// S3Config holds S3 client configuration.
type S3Config struct {
	// Region is the AWS region (e.g. "us-east-1").
	Region string

	// Endpoint overrides the default S3 endpoint, for S3-compatible
	// services like MinIO or LocalStack.
	Endpoint string

	// UsePathStyle forces path-style addressing.
	UsePathStyle bool

	// Static credentials. The default provider chain is used when
	// these are empty.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// DownloadTimeout bounds a single object download.
	DownloadTimeout time.Duration
}

// DefaultS3Config returns sensible defaults for S3 access.
func DefaultS3Config() S3Config {
	return S3Config{
		DownloadTimeout: 5 * time.Minute,
	}
}

// S3Source resolves s3://bucket/key locations. A key ending in "/" is
// treated as a prefix and expands to every object under it.
type S3Source struct {
	cfg    S3Config
	client *s3.Client
}

// NewS3Source creates an S3 source from the default AWS credential
// chain, with optional static credential and endpoint overrides.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, dferrors.Wrap(err, dferrors.CodeUnknown, "failed to load AWS config")
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultS3Config().DownloadTimeout
	}

	return &S3Source{
		cfg:    cfg,
		client: s3.NewFromConfig(awsCfg, s3Opts...),
	}, nil
}

// Resolve implements the Source interface.
func (s *S3Source) Resolve(ctx context.Context, location string) ([]Input, error) {
	bucket, key, err := splitS3URI(location)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(key, "/") || key == "" {
		return s.resolvePrefix(ctx, bucket, key)
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errNoInputs(location)
	}

	return []Input{s.objectInput(bucket, key, aws.ToInt64(head.ContentLength))}, nil
}

func (s *S3Source) resolvePrefix(ctx context.Context, bucket, prefix string) ([]Input, error) {
	var inputs []Input
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, dferrors.Wrap(err, dferrors.CodeFileNotFound, "failed to list objects").
				WithContext("bucket", bucket).
				WithContext("prefix", prefix)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			inputs = append(inputs, s.objectInput(bucket, key, aws.ToInt64(obj.Size)))
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}

	if len(inputs) == 0 {
		return nil, errNoInputs("s3://" + bucket + "/" + prefix)
	}
	return inputs, nil
}

func (s *S3Source) objectInput(bucket, key string, size int64) Input {
	return Input{
		Name: "s3://" + bucket + "/" + key,
		Size: size,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			ctx, cancel := context.WithTimeout(ctx, s.cfg.DownloadTimeout)

			out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				cancel()
				return nil, errNoInputs("s3://" + bucket + "/" + key)
			}

			return &cancelOnCloseReader{ReadCloser: out.Body, cancel: cancel}, nil
		},
	}
}

// splitS3URI splits s3://bucket/key into its parts.
func splitS3URI(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, "s3://")
	if rest == location || rest == "" {
		return "", "", dferrors.New(dferrors.CodeInvalidFormat, "invalid s3 URI").
			WithContext("location", location)
	}

	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if bucket == "" {
		return "", "", dferrors.New(dferrors.CodeInvalidFormat, "invalid s3 URI").
			WithContext("location", location)
	}
	if len(parts) == 2 {
		key = parts[1]
	}
	return bucket, key, nil
}

type cancelOnCloseReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnCloseReader) Close() error {
	r.cancel()
	return r.ReadCloser.Close()
}
