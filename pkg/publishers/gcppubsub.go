package publishers

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func newPubSubSender(ctx context.Context, cfg *PubSubConfig) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("pubsub configuration is missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &pubSubSender{client: client, topic: client.Topic(cfg.Topic)}, nil
}

func (s *pubSubSender) Send(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	res := s.topic.Publish(ctx, &pubsub.Message{Data: body, Attributes: attrs})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to pubsub: %w", err)
	}
	return id, nil
}

func (s *pubSubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
