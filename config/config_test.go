package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	c := map[string]string{
		"PORT":    "9090",
		"BAD_INT": "x",
		"FLAG":    "true",
		"TTL":     "15",
		"ORIGINS": "https://a.io, ,https://b.io",
	}

	assert.Equal(t, 9090, GetInt(c, "PORT", 8080))
	assert.Equal(t, 7, GetInt(c, "BAD_INT", 7))
	assert.Equal(t, "fallback", GetString(c, "MISSING", "fallback"))
	assert.True(t, GetBool(c, "FLAG", false))
	assert.True(t, GetBool(c, "MISSING", true))
	assert.Equal(t, 15*time.Second, GetSeconds(c, "TTL", 60))
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, GetList(c, "ORIGINS"))
	assert.Nil(t, GetList(c, "MISSING"))
}

type fakeSSM struct {
	values map[string]string
	calls  int
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	v, ok := f.values[*in.Name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func TestLoadSecrets(t *testing.T) {
	client := &fakeSSM{values: map[string]string{"/hub/jwt": "s3cret"}}
	c := map[string]string{"SSM_JWT_SECRET_PARAM": "/hub/jwt", "REDIS_PASSWORD": "set"}

	err := LoadSecrets(context.Background(), c, client, map[string]string{
		"JWT_SECRET":     "SSM_JWT_SECRET_PARAM",
		"REDIS_PASSWORD": "SSM_REDIS_PASSWORD_PARAM",
		"OTHER":          "SSM_OTHER_PARAM",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c["JWT_SECRET"])
	assert.Equal(t, "set", c["REDIS_PASSWORD"])
	assert.Equal(t, 1, client.calls)

	c = map[string]string{"SSM_JWT_SECRET_PARAM": "/missing"}
	assert.Error(t, LoadSecrets(context.Background(), c, client, map[string]string{"JWT_SECRET": "SSM_JWT_SECRET_PARAM"}))
}
