package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/bondmetrics/internal/collect"
	"benritz/bondmetrics/internal/types"
)

type fakeS3 struct {
	keys []string
	body []byte
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, aws.ToString(params.Key))
	body, err := io.ReadAll(params.Body)
	f.body = body
	return &s3.PutObjectOutput{}, err
}

func testHandler(client collect.S3Putter) *handler {
	return &handler{
		client: client,
		dst:    &collect.S3Path{Bucket: "bond-metrics", Prefix: "sqs"},
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
	}
}

func event(bodies ...string) events.SQSEvent {
	var ev events.SQSEvent
	for i, b := range bodies {
		ev.Records = append(ev.Records, events.SQSMessage{MessageId: string(rune('a' + i)), Body: b})
	}
	return ev
}

func TestHandle_PartialFailures(t *testing.T) {
	client := &fakeS3{}
	h := testHandler(client)

	resp, err := h.handle(context.Background(), event(
		`{"id":"T30","face_value":1000,"coupon_rate":0.05,"ytm":0.06,"years":10,"frequency":2}`,
		`not json`,
		`{"face_value":1000,"coupon_rate":0.05,"ytm":0.06,"years":10,"frequency":3}`,
		`{"face_value":100,"coupon_rate":0,"ytm":0.05,"years":10,"frequency":1}`,
	))
	require.NoError(t, err)

	require.Len(t, resp.BatchItemFailures, 2)
	assert.Equal(t, "b", resp.BatchItemFailures[0].ItemIdentifier)
	assert.Equal(t, "c", resp.BatchItemFailures[1].ItemIdentifier)

	require.Len(t, client.keys, 1)
	assert.Regexp(t, `^sqs/2025/03/14/sqs-\d+\.parquet$`, client.keys[0])

	records, err := parquet.Read[types.MetricsRecord](bytes.NewReader(client.body), int64(len(client.body)))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "T30", records[0].ID)
	assert.InDelta(t, 925.6126, records[0].Price, 5e-5)
	assert.Equal(t, "d", records[1].ID)
	assert.InDelta(t, 10.0, records[1].MacaulayDuration, 1e-9)
}

func TestHandle_AllInvalid(t *testing.T) {
	client := &fakeS3{}
	resp, err := testHandler(client).handle(context.Background(), event(`{}`))
	require.NoError(t, err)

	require.Len(t, resp.BatchItemFailures, 1)
	assert.Empty(t, client.keys)
}

func TestHandle_StoreFailureFailsBatch(t *testing.T) {
	client := &fakeS3{err: errors.New("throttled")}

	resp, err := testHandler(client).handle(context.Background(), event(
		`{"face_value":1000,"coupon_rate":0.05,"ytm":0.06,"years":10,"frequency":2}`,
		`bad`,
	))
	assert.ErrorContains(t, err, "throttled")
	assert.Len(t, resp.BatchItemFailures, 2)
}
