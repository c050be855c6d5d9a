package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config holds S3 client configuration for floor-plan archival.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PlansBucket     string
}

// S3 archives floor-plan SVGs to an S3 bucket. Archival is best-effort:
// callers log failures but never fail the write that triggered them.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the
// environment (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else if logger != nil {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// PlanKey returns the S3 object key for a floor plan: floors/{id}.svg.
func PlanKey(floorID int64) string {
	return fmt.Sprintf("floors/%d.svg", floorID)
}

// ArchiveFloorPlan uploads the SVG for a floor to the plans bucket.
func (s *S3) ArchiveFloorPlan(ctx context.Context, floorID int64, svg string) error {
	if s.cfg.PlansBucket == "" {
		return fmt.Errorf("no plans bucket configured")
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.PlansBucket),
		Key:         aws.String(PlanKey(floorID)),
		Body:        strings.NewReader(svg),
		ContentType: aws.String("image/svg+xml"),
	})
	if err != nil {
		return fmt.Errorf("upload floor plan: %w", err)
	}
	return nil
}
