package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubSenderPublishes(t *testing.T) {
	srv := pstest.NewServer()
	defer srv.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", srv.Addr)

	ctx := context.Background()
	admin, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer admin.Close()
	if _, err := admin.CreateTopic(ctx, "searches"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newQueuePublisher(ctx, PublisherConfig{
		ID:   "ps",
		Type: TypeQueue,
		Queue: &QueueConfig{
			Provider: QueueProviderGCP,
			PubSub:   &PubSubConfig{ProjectID: "test-project", Topic: "searches"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newQueuePublisher: %v", err)
	}
	defer pub.(closer).Close()

	if err := pub.Publish(ctx, testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["search_type"] != "latest" {
		t.Fatalf("unexpected attributes %v", msgs[0].Attributes)
	}
	var got SearchEvent
	if err := json.Unmarshal(msgs[0].Data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID != "evt-1" || got.Query != "climate change" {
		t.Fatalf("unexpected payload %+v", got)
	}
}
