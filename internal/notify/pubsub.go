// Package notify signals the downstream validation pipeline on Google
// Cloud Pub/Sub when a crawl batch admits new sites.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSubNotifier publishes a validation trigger to a Pub/Sub topic.
type PubSubNotifier struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSub creates a notifier bound to the given project and topic.
// Authentication uses Application Default Credentials.
func NewPubSub(ctx context.Context, projectID, topicName string, logger *zap.Logger) (*PubSubNotifier, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicName)
	ok, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicName, err)
	}
	if !ok {
		client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicName, projectID)
	}

	return &PubSubNotifier{client: client, topic: topic, logger: logger}, nil
}

// Notify publishes a trigger message and waits for the server ack.
func (n *PubSubNotifier) Notify(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"event":        "sites_admitted",
		"triggered_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal trigger payload: %w", err)
	}

	result := n.topic.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish trigger: %w", err)
	}

	n.logger.Debug("published validation trigger", zap.String("message_id", id))
	return nil
}

// Close releases the underlying client.
func (n *PubSubNotifier) Close() error {
	n.topic.Stop()
	return n.client.Close()
}

// NoOp is a Notifier that does nothing. Used when Pub/Sub is not configured.
type NoOp struct{}

// Notify implements the notifier contract.
func (NoOp) Notify(context.Context) error { return nil }
