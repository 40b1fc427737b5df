package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"benritz/bondmetrics/internal/collect"
	"benritz/bondmetrics/internal/logging"
	"benritz/bondmetrics/internal/types"
)

var (
	ENV_BUCKET_NAME   = "BONDMETRICS_BUCKET_NAME"
	ENV_BUCKET_PREFIX = "BONDMETRICS_BUCKET_PREFIX"
	ENV_LOG_LEVEL     = "BONDMETRICS_LOG_LEVEL"
)

const source = "sqs"

// BondRequest is the SQS message body.
type BondRequest struct {
	ID string `json:"id"`
	types.BondParams
}

type handler struct {
	client collect.S3Putter
	dst    *collect.S3Path
	logger zerolog.Logger
	now    func() time.Time
}

func entriesFromMessages(records []events.SQSMessage) ([]collect.Entry, map[int]string) {
	entries := make([]collect.Entry, 0, len(records))
	messageIDs := make(map[int]string, len(records))

	for i, rec := range records {
		line := i + 1
		messageIDs[line] = rec.MessageId

		var req BondRequest
		if err := json.Unmarshal([]byte(rec.Body), &req); err != nil {
			entries = append(entries, collect.Entry{
				ID:     rec.MessageId,
				Source: source,
				Line:   line,
				Err:    fmt.Errorf("%w: %w", collect.ErrInvalidRow, err),
			})
			continue
		}

		id := req.ID
		if id == "" {
			id = rec.MessageId
		}

		entries = append(entries, collect.Entry{
			ID:     id,
			Source: source,
			Line:   line,
			Params: req.BondParams,
		})
	}

	return entries, messageIDs
}

func (h *handler) handle(ctx context.Context, request events.SQSEvent) (events.SQSEventResponse, error) {
	entries, messageIDs := entriesFromMessages(request.Records)
	records, failures := collect.ComputeAll(entries)

	var resp events.SQSEventResponse
	for _, f := range failures {
		h.logger.Warn().Str("message_id", messageIDs[f.Line]).Err(f.Err).Msg("rejecting bond request")
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
			ItemIdentifier: messageIDs[f.Line],
		})
	}

	if len(records) == 0 {
		return resp, nil
	}

	name := fmt.Sprintf("%s-%d", source, h.now().UnixNano())
	outPath, err := collect.StoreToS3(ctx, records, h.client, h.dst, name, h.now())
	if err != nil {
		// nothing was stored, so every message must be retried
		all := events.SQSEventResponse{}
		for _, rec := range request.Records {
			all.BatchItemFailures = append(all.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
		return all, fmt.Errorf("failed to store metrics: %w", err)
	}

	h.logger.Info().
		Str("path", outPath).
		Int("records", len(records)).
		Int("failures", len(failures)).
		Msg("stored metrics")

	return resp, nil
}

func newHandler(ctx context.Context) (*handler, error) {
	bucketName := os.Getenv(ENV_BUCKET_NAME)
	if bucketName == "" {
		return nil, fmt.Errorf("%s is not set", ENV_BUCKET_NAME)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.JSON = true
	if lvl := os.Getenv(ENV_LOG_LEVEL); lvl != "" {
		logCfg.Level = lvl
	}

	return &handler{
		client: s3.NewFromConfig(cfg),
		dst: &collect.S3Path{
			Bucket: bucketName,
			Prefix: os.Getenv(ENV_BUCKET_PREFIX),
		},
		logger: logging.WithOperation(logging.NewLogger(logCfg), "compute-metrics"),
		now:    time.Now,
	}, nil
}

func main() {
	h, err := newHandler(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(h.handle)
}
