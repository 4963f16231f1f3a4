package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver keeps an out-of-database copy of every recorded split
type Archiver interface {
	Archive(ctx context.Context, tx *models.SplitTransaction) error
}

// objectPutter is the part of the S3 client used by the archiver
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// LedgerArchiver writes ledger rows as JSON objects to an S3-compatible bucket (R2)
type LedgerArchiver struct {
	client objectPutter
	bucket string
}

// NewLedgerArchiver returns nil when archiving is disabled
func NewLedgerArchiver(ctx context.Context, cfg config.ArchiveConfig) (*LedgerArchiver, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure archive client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &LedgerArchiver{client: client, bucket: cfg.Bucket}, nil
}

// ArchiveKey is the object key of a ledger row: splits/<yyyy>/<mm>/<key>.json
func ArchiveKey(tx *models.SplitTransaction) string {
	return fmt.Sprintf("splits/%04d/%02d/%s.json", tx.CreatedAt.UTC().Year(), int(tx.CreatedAt.UTC().Month()), tx.IdempotencyKey)
}

func (a *LedgerArchiver) Archive(ctx context.Context, tx *models.SplitTransaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to encode ledger row %s: %w", tx.IdempotencyKey, err)
	}

	key := ArchiveKey(tx)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Printf("[Archive] Stored %s (%d bytes)", key, len(data))
	return nil
}
