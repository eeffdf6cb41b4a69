package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/pkg/crypto"
)

// S3Config holds the settings for the S3 export sink.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	KeyPrefix       string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Exporter uploads the encrypted snapshot to an S3 bucket. Each
// export gets a timestamped key so earlier snapshots are retained.
type S3Exporter struct {
	dir       directory.Directory
	encryptor *crypto.Encryptor
	client    *s3.Client
	cfg       S3Config
	logger    zerolog.Logger
}

// NewS3Exporter builds the S3 client and exporter.
func NewS3Exporter(ctx context.Context, dir directory.Directory, enc *crypto.Encryptor, cfg S3Config, logger zerolog.Logger) (*S3Exporter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Exporter{
		dir:       dir,
		encryptor: enc,
		client:    client,
		cfg:       cfg,
		logger:    logger.With().Str("component", "export-s3").Logger(),
	}, nil
}

// Export uploads the encrypted snapshot and returns its S3 URL.
func (e *S3Exporter) Export(ctx context.Context) (string, error) {
	payload, err := encode(e.dir, e.encryptor)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%sdatabase-%s.jsonl", e.cfg.KeyPrefix, time.Now().UTC().Format("20060102T150405Z"))
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading export: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", e.cfg.Bucket, key)
	e.logger.Info().Str("location", location).Int("bytes", len(payload)).Msg("database exported")
	return location, nil
}

var _ Exporter = (*S3Exporter)(nil)
