package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
)

var errNoTopics = errors.New("pubsub topic name is required")

const (
	topicsKind        = "topics"
	subscriptionsKind = "subscriptions"
)

// verify checks every configured resource and reports all problems at once.
func (c *Client) verify(ctx context.Context) error {
	topics := topicNames(c.cfg)
	if len(topics) == 0 {
		return errNoTopics
	}

	var errs error
	for _, name := range topics {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
			Topic: c.topicResourceName(name),
		})
		errs = multierr.Append(errs, lookupError("topic", name, err))
	}
	for _, name := range subscriptionNames(c.cfg) {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
			Subscription: c.subscriptionResourceName(name),
		})
		errs = multierr.Append(errs, lookupError("subscription", name, err))
	}
	return errs
}

func lookupError(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	default:
		return fmt.Errorf("check %s %q: %w", kind, name, err)
	}
}

func topicNames(cfg config.PubSubConfig) []string {
	return trimmed(cfg.PetEventsTopic, cfg.NotificationTopic)
}

func subscriptionNames(cfg config.PubSubConfig) []string {
	return trimmed(cfg.PetEventsSubscription, cfg.NotificationSubscription)
}

func trimmed(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Client) topicResourceName(name string) string {
	return c.resourceName(topicsKind, name)
}

func (c *Client) subscriptionResourceName(name string) string {
	return c.resourceName(subscriptionsKind, name)
}

// resourceName expands an ID to projects/<project>/<kind>/<id>. Names that are
// already fully qualified pass through untouched.
func (c *Client) resourceName(kind, name string) string {
	name = strings.TrimSpace(name)
	if c == nil || name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	if c.projectID == "" {
		return ""
	}
	return "projects/" + c.projectID + "/" + kind + "/" + name
}
