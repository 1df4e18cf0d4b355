package rsapp

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/fx"
)

const awsConfigTimeout = 10 * time.Second

// NewAWSConfig loads the default AWS SDK v2 configuration.
func NewAWSConfig(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// provideAWSConfig is an fx provider that loads AWS config with a timeout.
func provideAWSConfig() (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer cancel()
	return NewAWSConfig(ctx)
}

// clientOptions holds configuration for AWS client registration.
type clientOptions struct {
	region string
}

// ClientOption configures AWS client registration.
type ClientOption func(*clientOptions)

// ForRegion configures the client to target a specific region instead of the
// region resolved from the environment.
func ForRegion(region string) ClientOption {
	return func(o *clientOptions) {
		o.region = region
	}
}

// AWSClientProvider creates an fx.Option that provides an AWS client for injection.
// The factory receives an aws.Config with the region already configured.
//
//	rsapp.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
//	    return dynamodb.NewFromConfig(cfg)
//	})
func AWSClientProvider[T any](factory func(aws.Config) T, opts ...ClientOption) fx.Option {
	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	return fx.Provide(func(cfg aws.Config) T {
		awsCfg := cfg.Copy()
		if options.region != "" {
			awsCfg.Region = options.region
		}
		return factory(awsCfg)
	})
}
