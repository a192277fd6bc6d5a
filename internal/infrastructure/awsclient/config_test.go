package awsclient

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestLoad_StaticCredentialsAndEndpoint(t *testing.T) {
	cfg, err := Load(context.Background(), Config{
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Region != "eu-west-1" {
		t.Errorf("expected region eu-west-1, got %s", cfg.Region)
	}
	if aws.ToString(cfg.BaseEndpoint) != "http://localhost:4566" {
		t.Errorf("unexpected endpoint %v", cfg.BaseEndpoint)
	}

	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if creds.AccessKeyID != "test" || creds.SecretAccessKey != "secret" {
		t.Errorf("unexpected credentials %+v", creds)
	}
}

func TestLoad_PartialCredentials(t *testing.T) {
	_, err := Load(context.Background(), Config{AccessKeyID: "only-id"})
	if err == nil {
		t.Fatal("expected error for partial static credentials")
	}
}
