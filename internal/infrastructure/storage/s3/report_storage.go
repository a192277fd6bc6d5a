package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
)

const contentTypeJSON = "application/json"

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Config struct {
	Bucket       string
	KeyPrefix    string
	UsePathStyle bool
}

// ReportStorage publishes report artifacts as S3 objects.
// A PutObject replaces the whole object, so readers never see a partial report.
type ReportStorage struct {
	client    objectAPI
	bucket    string
	keyPrefix string
}

func NewReportStorage(awsCfg aws.Config, cfg Config) (*ReportStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		options.UsePathStyle = cfg.UsePathStyle
	})

	return newReportStorage(client, cfg), nil
}

func newReportStorage(client objectAPI, cfg Config) *ReportStorage {
	return &ReportStorage{
		client:    client,
		bucket:    strings.TrimSpace(cfg.Bucket),
		keyPrefix: strings.Trim(strings.TrimSpace(cfg.KeyPrefix), "/"),
	}
}

func (s *ReportStorage) Write(ctx context.Context, objectPath string, body []byte) error {
	key, err := s.key(objectPath)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentTypeJSON),
	})
	if err != nil {
		return fmt.Errorf("put object failed: %w", err)
	}

	return nil
}

func (s *ReportStorage) LastModified(ctx context.Context, objectPath string) (*time.Time, error) {
	key, err := s.key(objectPath)
	if err != nil {
		return nil, err
	}

	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("head object failed: %w", err)
	}

	if output.LastModified == nil {
		return nil, nil
	}
	modified := output.LastModified.UTC()
	return &modified, nil
}

func (s *ReportStorage) Read(ctx context.Context, objectPath string) ([]byte, error) {
	key, err := s.key(objectPath)
	if err != nil {
		return nil, err
	}

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, port.ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object failed: %w", err)
	}
	defer output.Body.Close()

	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body failed: %w", err)
	}

	return body, nil
}

func (s *ReportStorage) key(objectPath string) (string, error) {
	normalized := strings.Trim(strings.TrimSpace(objectPath), "/")
	if normalized == "" {
		return "", fmt.Errorf("object key is required")
	}
	if s.keyPrefix == "" {
		return normalized, nil
	}
	return path.Join(s.keyPrefix, normalized), nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
