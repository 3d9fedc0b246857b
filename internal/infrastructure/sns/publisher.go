package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/socialx-api/internal/config"
	"github.com/socialx-api/internal/infrastructure/awsconf"
)

// Publisher fans domain events out to an SNS topic.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

// NewPublisher returns a topic publisher, or a no-op one when no topic is configured.
func NewPublisher(awsCfg aws.Config, cfg *config.Config) Publisher {
	if cfg.SNSTopicARN == "" {
		return noopPublisher{}
	}
	endpoint := awsconf.Endpoint(cfg)
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	return &publisher{client: client, topicARN: cfg.SNSTopicARN}
}

// Publish sends payload as JSON with an event_type message attribute so
// subscribers can filter by type.
func (p *publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	return err
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }
