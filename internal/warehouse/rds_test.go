package warehouse

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRDSConfig_DSN(t *testing.T) {
	dsn, err := RDSConfig{Endpoint: "clearvue.example.rds.amazonaws.com", Region: "af-south-1", User: "etl", Name: "bi"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://etl@clearvue.example.rds.amazonaws.com:5432/bi?sslmode=require", dsn)

	_, err = RDSConfig{Endpoint: "x"}.DSN()
	require.Error(t, err)
}

func TestTokenFunc(t *testing.T) {
	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
	})
	fn := tokenFunc(RDSConfig{Endpoint: "db.example.com", Port: 6543, Region: "af-south-1", User: "etl"}, creds)

	token, err := fn(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "db.example.com:6543"), token)
	assert.Contains(t, token, "Action=connect")
	assert.Contains(t, token, "DBUser=etl")
	assert.Contains(t, token, "X-Amz-Signature=")
}
