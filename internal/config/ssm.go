package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM surface required by SSMGetter.
// *ssm.Client satisfies it.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMGetter resolves secrets from AWS SSM Parameter Store with decryption.
type SSMGetter struct {
	api ssmAPI
}

func NewSSMGetter(api ssmAPI) (*SSMGetter, error) {
	if api == nil {
		return nil, errors.New("config: ssm api must not be nil")
	}
	return &SSMGetter{api: api}, nil
}

func (g *SSMGetter) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("config: parameter name is required")
	}

	withDecryption := true
	out, err := g.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("config: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("config: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}
