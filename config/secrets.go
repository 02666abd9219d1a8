package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterGetter is the part of the SSM client used to resolve secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadSecrets fills config keys from SSM parameters. mapping goes from config key to
// the env key holding the parameter name, e.g. JWT_SECRET -> SSM_JWT_SECRET_PARAM.
// Keys that are already set are left alone.
func LoadSecrets(ctx context.Context, c map[string]string, client ParameterGetter, mapping map[string]string) error {
	for key, paramKey := range mapping {
		if GetString(c, key, "") != "" {
			continue
		}
		name := GetString(c, paramKey, "")
		if name == "" {
			continue
		}

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return err
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			continue
		}
		c[key] = *out.Parameter.Value
		log.Info().Str("key", key).Str("parameter", name).Msg("loaded secret from SSM")
	}
	return nil
}
