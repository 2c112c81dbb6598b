// Package awsclient wraps the AWS SDK calls the monitors depend on. All
// SDK-shaped payloads are validated here so the monitoring layer only ever
// sees well-formed records.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"

	apperrors "github.com/FabricioMatosSIlva/awswatch-go/internal/errors"
)

// CredentialSource selects how AWS credentials are resolved. Exactly one
// resolution path is attempted per call: a named profile wins over explicit
// keys, which win over the ambient environment/IAM chain.
type CredentialSource struct {
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Method reports which resolution path Resolve will take.
func (s CredentialSource) Method() string {
	switch {
	case s.Profile != "":
		return "profile"
	case s.AccessKeyID != "" && s.SecretAccessKey != "":
		return "static_keys"
	default:
		return "ambient"
	}
}

// Resolve builds an aws.Config for the region and forces credential
// resolution so a missing or broken credential chain fails here, before any
// monitor starts polling.
func Resolve(ctx context.Context, src CredentialSource, region string) (aws.Config, error) {
	var (
		cfg aws.Config
		err error
	)

	switch src.Method() {
	case "profile":
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(src.Profile),
		)
	case "static_keys":
		provider := credentials.NewStaticCredentialsProvider(src.AccessKeyID, src.SecretAccessKey, src.SessionToken)
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithCredentialsProvider(provider),
		)
	default:
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
	}
	if err != nil {
		return aws.Config{}, apperrors.WrapAuthError("resolve_credentials", src.Method(), err)
	}

	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, apperrors.WrapAuthError("retrieve_credentials", src.Method(),
			fmt.Errorf("credential chain produced no usable credentials: %w", err))
	}

	log.Debug().
		Str("method", src.Method()).
		Str("region", region).
		Msg("AWS credentials resolved")

	return cfg, nil
}
