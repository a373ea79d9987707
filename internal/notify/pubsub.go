package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// PubSubPublisher publishes summaries as JSON messages to a Pub/Sub topic.
type PubSubPublisher struct {
	Client *pubsub.Client
	Topic  *pubsub.Topic
}

// NewPubSubPublisher binds client to topicID, failing if the topic does not exist.
// The publisher takes ownership of client and closes it in Close.
func NewPubSubPublisher(ctx context.Context, client *pubsub.Client, topicID string) (*PubSubPublisher, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic '%s' does not exist in project '%s'", topicID, client.Project())
	}
	return &PubSubPublisher{
		Client: client,
		Topic:  topic,
	}, nil
}

// Publish sends the summary and blocks until the server acknowledges it.
func (p *PubSubPublisher) Publish(ctx context.Context, summary Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"operation": summary.Operation,
			"run_id":    summary.RunID,
		},
	}
	if _, err := p.Topic.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

// Close flushes the topic and closes the underlying client connection.
func (p *PubSubPublisher) Close() error {
	p.Topic.Stop()
	if err := p.Client.Close(); err != nil {
		return fmt.Errorf("failed to close pubsub client: %w", err)
	}
	return nil
}
