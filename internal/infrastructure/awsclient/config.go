// Package awsclient builds the aws.Config shared by every AWS adapter.
package awsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const defaultRegion = "us-east-1"

// Config holds the connection settings common to all AWS clients.
type Config struct {
	Region          string
	Endpoint        string // Optional endpoint override (for LocalStack)
	AccessKeyID     string
	SecretAccessKey string
}

// Load creates an AWS config. Static credentials are used only when both keys are set,
// otherwise the default chain (env, shared files, Lambda role) applies.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return aws.Config{}, fmt.Errorf("both access key id and secret access key are required for static credentials")
		}
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(endpoint)
	}

	return awsCfg, nil
}
