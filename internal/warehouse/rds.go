package warehouse

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	rdsutils "github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/db"
)

// RDSConfig describes an IAM-authenticated RDS Postgres instance.
type RDSConfig struct {
	Endpoint string // e.g. clearvue.abc123.af-south-1.rds.amazonaws.com
	Port     int
	Region   string
	User     string
	Name     string
	Profile  string
}

func (c RDSConfig) hostPort() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("%s:%d", c.Endpoint, port)
}

// DSN returns a passwordless connection string; pair it with IAMPassword.
func (c RDSConfig) DSN() (string, error) {
	if c.Endpoint == "" || c.User == "" || c.Name == "" {
		return "", eris.New("warehouse: rds endpoint, user and name are required")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(c.User),
		Host:     c.hostPort(),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=require",
	}
	return u.String(), nil
}

// IAMPassword returns a PasswordFunc that signs a fresh RDS auth token for each connection.
func IAMPassword(ctx context.Context, c RDSConfig) (db.PasswordFunc, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: load aws config")
	}
	return tokenFunc(c, awsCfg.Credentials), nil
}

func tokenFunc(c RDSConfig, creds aws.CredentialsProvider) db.PasswordFunc {
	return func(ctx context.Context) (string, error) {
		token, err := rdsutils.BuildAuthToken(ctx, c.hostPort(), c.Region, c.User, creds)
		if err != nil {
			return "", eris.Wrap(err, "warehouse: build rds auth token")
		}
		return token, nil
	}
}
