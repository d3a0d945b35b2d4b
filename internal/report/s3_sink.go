package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Sink archives an emitted report to an S3-compatible bucket (Cloudflare
// R2, in the teacher's deployment), grounded on the upload half of
// internal/reliability/r2_backup_service.go: one object per write, keyed by
// report name and an upload timestamp rather than a database tar.gz.
type S3Sink struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Sink builds an S3Sink against an S3-compatible endpoint. endpoint may
// be empty to use AWS's default resolver; region, accessKey, and secretKey
// follow the same (possibly R2) credentials the teacher's R2Client used.
func NewS3Sink(ctx context.Context, bucket, region, endpoint, accessKey, secretKey, prefix string, log zerolog.Logger) (*S3Sink, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(region))
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("report s3 sink: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Sink{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("sink", "report_s3").Logger(),
	}, nil
}

// Write renders r as CSV in memory and uploads it as a timestamped object.
func (s *S3Sink) Write(ctx context.Context, r Report) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header, colIndex := unionColumns(r.Rows)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("report s3 sink: write header: %w", err)
	}
	for _, row := range r.Rows {
		rec := make([]string, len(header))
		for _, c := range row.Columns {
			rec[colIndex[c.Name]] = c.Value
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("report s3 sink: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report s3 sink: flush csv: %w", err)
	}

	key := fmt.Sprintf("%s%s-%s.csv", s.prefix, r.Name, time.Now().UTC().Format("2006-01-02-150405"))

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to upload report to s3")
		return fmt.Errorf("report s3 sink: upload: %w", err)
	}

	s.log.Info().Str("key", key).Int("bytes", buf.Len()).Msg("uploaded report to s3")
	return nil
}
