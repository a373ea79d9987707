// Package notify_test contains unit tests for the notify package.
package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/bucketsync/internal/notify"
)

func newFakeClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(context.Background(), "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	return client, srv
}

func TestPubSubPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	client, srv := newFakeClient(t)

	_, err := client.CreateTopic(ctx, "runs")
	require.NoError(t, err)

	publisher, err := notify.NewPubSubPublisher(ctx, client, "runs")
	require.NoError(t, err)

	summary := notify.Summary{
		RunID:      "run-1",
		Operation:  "upload-all",
		Bucket:     "backups",
		Succeeded:  3,
		Failed:     1,
		Skipped:    2,
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 9, 0, time.UTC),
	}
	require.NoError(t, publisher.Publish(ctx, summary))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "upload-all", msgs[0].Attributes["operation"])

	var got notify.Summary
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, summary, got)

	require.NoError(t, publisher.Close())
}

func TestNewPubSubPublisher_MissingTopic(t *testing.T) {
	client, _ := newFakeClient(t)
	defer client.Close()

	_, err := notify.NewPubSubPublisher(context.Background(), client, "absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestNoOpPublisher(t *testing.T) {
	p := &notify.NoOpPublisher{}
	assert.NoError(t, p.Publish(context.Background(), notify.Summary{}))
	assert.NoError(t, p.Close())
}
