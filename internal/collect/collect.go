package collect

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"

	"benritz/bondmetrics/internal/types"
)

var (
	ErrInvalidRow    = fmt.Errorf("invalid row")
	ErrInvalidS3Path = fmt.Errorf("path must start with s3://")
	ErrNoRecords     = fmt.Errorf("no records to store")
)

type CollectedGilt struct {
	Gilt *types.Gilt
	Err  error
}

func (c *CollectedGilt) SetError(err error) {
	if c.Err == nil {
		c.Err = err
	}
}

type CollectedGilts struct {
	Gilts          []*types.Gilt
	Failures       []*CollectedGilt
	Source         string
	SettlementDate time.Time
}

func (c *CollectedGilts) AddGilt(cg *CollectedGilt) {
	if cg.Err == nil {
		c.Gilts = append(c.Gilts, cg.Gilt)
	} else {
		c.Failures = append(c.Failures, cg)
	}
}

func NewCollectedGilts(source string, date time.Time) *CollectedGilts {
	return &CollectedGilts{
		Source:         source,
		SettlementDate: date,
		Gilts:          []*types.Gilt{},
		Failures:       []*CollectedGilt{},
	}
}

// Entries converts the collected gilts into engine inputs. A gilt whose
// parameters fail validation becomes a failed entry.
func (c *CollectedGilts) Entries() []Entry {
	entries := make([]Entry, 0, len(c.Gilts))

	for i, g := range c.Gilts {
		id := g.ISIN
		if id == "" {
			id = g.Ticker
		}

		p, err := g.Params()
		entries = append(entries, Entry{
			ID:     id,
			Source: c.Source,
			Line:   i + 1,
			Params: p,
			Err:    err,
		})
	}

	return entries
}

type Collector interface {
	Collect(ctx context.Context, date time.Time) (*CollectedGilts, error)
	Source() string
}

func writeRecords(records []types.MetricsRecord, output io.Writer) error {
	writer := parquet.NewGenericWriter[types.MetricsRecord](output)

	if _, err := writer.Write(records); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return nil
}

// ReadRecords reads a parquet file written by StoreToPath.
func ReadRecords(path string) ([]types.MetricsRecord, error) {
	return parquet.ReadFile[types.MetricsRecord](path)
}

func datedKey(date time.Time, sep rune, name string) string {
	return fmt.Sprintf(
		"%04d%c%02d%c%02d%c%s.parquet",
		date.UTC().Year(),
		sep,
		date.UTC().Month(),
		sep,
		date.UTC().Day(),
		sep,
		name,
	)
}

// StoreToPath writes records to <basepath>/YYYY/MM/DD/<name>.parquet.
func StoreToPath(ctx context.Context, records []types.MetricsRecord, basepath, name string, date time.Time) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}

	outPath := filepath.Join(basepath, datedKey(date, filepath.Separator, name))

	if err := os.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
		return "", err
	}

	file, err := os.Create(outPath)
	if err != nil {
		return "", err
	}

	if err := writeAndClose(records, file); err != nil {
		return "", err
	}

	return outPath, nil
}

// writeAndClose writes records to output and closes it. A failed close means
// the parquet footer may not have reached the file.
func writeAndClose(records []types.MetricsRecord, output io.WriteCloser) error {
	if err := writeRecords(records, output); err != nil {
		output.Close()
		return err
	}

	if err := output.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	return nil
}

type S3Path struct {
	Bucket string
	Prefix string
}

func (p *S3Path) String() string {
	if p.Prefix == "" {
		return fmt.Sprintf("s3://%s", p.Bucket)
	}
	return fmt.Sprintf("s3://%s/%s", p.Bucket, p.Prefix)
}

func ParseS3(path string) (*S3Path, error) {
	if !strings.HasPrefix(path, "s3://") {
		return nil, ErrInvalidS3Path
	}

	path = strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(path, "/", 2)

	bucket := parts[0]
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket", ErrInvalidS3Path)
	}

	var prefix string
	if len(parts) > 1 {
		prefix = strings.TrimSuffix(parts[1], "/")
	}

	return &S3Path{
		Bucket: bucket,
		Prefix: prefix,
	}, nil
}

// S3Putter is the part of *s3.Client used for uploads.
type S3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// StoreToS3 uploads records to <prefix>/YYYY/MM/DD/<name>.parquet in the bucket.
func StoreToS3(ctx context.Context, records []types.MetricsRecord, client S3Putter, dst *S3Path, name string, date time.Time) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}

	tmp, err := os.CreateTemp("", "bondmetrics-*.parquet")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()
	defer os.Remove(tmp.Name())

	if err := writeRecords(records, tmp); err != nil {
		return "", err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek to start of file: %w", err)
	}

	key := datedKey(date, '/', name)
	if dst.Prefix != "" {
		key = fmt.Sprintf("%s/%s", dst.Prefix, key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(dst.Bucket),
		Key:    aws.String(key),
		Body:   tmp,
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload file to s3://%s/%s: %w", dst.Bucket, key, err)
	}

	return fmt.Sprintf("s3://%s/%s", dst.Bucket, key), nil
}

// Store writes records to dst, which is either an s3:// URL or a local directory.
// newClient is only called for S3 destinations.
func Store(ctx context.Context, records []types.MetricsRecord, dst, name string, date time.Time, newClient func(ctx context.Context) (S3Putter, error)) (string, error) {
	if !strings.HasPrefix(dst, "s3://") {
		return StoreToPath(ctx, records, dst, name, date)
	}

	s3Path, err := ParseS3(dst)
	if err != nil {
		return "", err
	}

	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	return StoreToS3(ctx, records, client, s3Path, name, date)
}
