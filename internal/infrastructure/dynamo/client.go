package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/socialx-api/internal/config"
	"github.com/socialx-api/internal/infrastructure/awsconf"
)

// NewClient creates the DynamoDB client behind every repo. Against LocalStack
// all table traffic goes to cfg.AWSEndpointURL.
func NewClient(awsCfg aws.Config, cfg *config.Config) *dynamodb.Client {
	endpoint := awsconf.Endpoint(cfg)
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
}
