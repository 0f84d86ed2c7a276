package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appConfig "github.com/pkowalczyk/autoshop-api/config"
)

// ArtifactStore retrieves the frozen classifier artifact and its metadata
// document. The pair is fetched once at process start; stores do not watch
// for updates.
type ArtifactStore interface {
	FetchArtifact() ([]byte, error)
	FetchMetadata() ([]byte, error)
}

// NewArtifactStore picks the store implied by configuration: S3 when a
// bucket is configured, the local model directory otherwise.
func NewArtifactStore(cfg *appConfig.Config) (ArtifactStore, error) {
	if cfg.AWSS3Bucket != "" {
		return NewS3ArtifactStore(cfg)
	}
	return &LocalArtifactStore{
		Dir:          cfg.ModelDir,
		ArtifactName: cfg.ModelArtifactName,
		MetadataName: cfg.ModelMetadataName,
	}, nil
}

// LocalArtifactStore reads the artifact pair from a directory on disk.
type LocalArtifactStore struct {
	Dir          string
	ArtifactName string
	MetadataName string
}

// FetchArtifact reads the serialized classifier from the model directory
func (l *LocalArtifactStore) FetchArtifact() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.Dir, l.ArtifactName))
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier artifact: %w", err)
	}
	return data, nil
}

// FetchMetadata reads the metadata document from the model directory
func (l *LocalArtifactStore) FetchMetadata() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.Dir, l.MetadataName))
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier metadata: %w", err)
	}
	return data, nil
}

// S3ArtifactStore fetches the artifact pair from an S3 bucket. Used when the
// trained model is published by the training job to shared storage instead
// of being baked into the deployment.
type S3ArtifactStore struct {
	client       *s3.Client
	bucket       string
	artifactName string
	metadataName string
}

// NewS3ArtifactStore initializes the S3-backed store with AWS credentials
func NewS3ArtifactStore(cfg *appConfig.Config) (*S3ArtifactStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3ArtifactStore{
		client:       s3.NewFromConfig(awsCfg),
		bucket:       cfg.AWSS3Bucket,
		artifactName: cfg.ModelArtifactName,
		metadataName: cfg.ModelMetadataName,
	}, nil
}

// FetchArtifact downloads the serialized classifier from S3
func (s *S3ArtifactStore) FetchArtifact() ([]byte, error) {
	return s.getObject("models/" + s.artifactName)
}

// FetchMetadata downloads the metadata document from S3
func (s *S3ArtifactStore) FetchMetadata() ([]byte, error) {
	return s.getObject("models/" + s.metadataName)
}

func (s *S3ArtifactStore) getObject(key string) ([]byte, error) {
	out, err := s.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from S3: %w", key, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from S3: %w", key, err)
	}
	return data, nil
}
