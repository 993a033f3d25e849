package config

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

const parameterTimeout = 5 * time.Second

// ParameterGetter resolves secrets by name.
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string, decrypt bool) (string, error)
}

// ParameterStore reads values from AWS SSM Parameter Store using the default
// credential chain.
type ParameterStore struct {
	client *ssm.Client
}

func NewParameterStore(ctx context.Context) (*ParameterStore, error) {
	ctx, cancel := context.WithTimeout(ctx, parameterTimeout)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &ParameterStore{client: ssm.NewFromConfig(cfg)}, nil
}

func (p *ParameterStore) GetParameter(ctx context.Context, name string, decrypt bool) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty ssm parameter name")
	}

	ctx, cancel := context.WithTimeout(ctx, parameterTimeout)
	defer cancel()

	result, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("get ssm parameter %s: %w", name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %s has no value", name)
	}
	return *result.Parameter.Value, nil
}
