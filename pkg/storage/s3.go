package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/investoriq/investoriq-api/pkg/telemetry"
)

// documentSuffix is appended to every object key
const documentSuffix = ".json"

// S3Config holds configuration for S3 storage
type S3Config struct {
	BucketHost      string
	BucketPort      int
	BucketName      string
	UseSSL          bool
	InsecureTLS     bool
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// s3API is the subset of *s3.Client used here
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Storage stores each document as a JSON object at <collection>/<id>.json
type S3Storage struct {
	client     s3API
	bucketName string
	// mu serializes read-modify-write updates from this process
	mu sync.Mutex
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s:%d", scheme, cfg.BucketHost, cfg.BucketPort)

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	opts = append(opts, config.WithHTTPClient(&http.Client{
		Transport: telemetry.WrapTransport(base),
	}))

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // Required for MinIO and most S3-compatible stores
	})

	return newS3Storage(client, cfg.BucketName), nil
}

func newS3Storage(client s3API, bucket string) *S3Storage {
	return &S3Storage{client: client, bucketName: bucket}
}

func objectKey(collection, id string) string {
	return collection + "/" + id + documentSuffix
}

// NewID allocates a random identifier
func (s *S3Storage) NewID(collection string) string {
	return uuid.NewString()
}

func (s *S3Storage) get(ctx context.Context, collection, id string) (Document, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey(collection, id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, &ErrNotFound{Collection: collection, ID: id}
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	if doc == nil {
		doc = Document{}
	}
	doc, err = Normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *S3Storage) put(ctx context.Context, collection, id string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", collection, id, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey(collection, id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

// List reads every object under the collection prefix
func (s *S3Storage) List(ctx context.Context, collection string) ([]Document, error) {
	prefix := collection + "/"
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	})

	result := []Document{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, documentSuffix) {
				continue
			}
			id := strings.TrimSuffix(strings.TrimPrefix(key, prefix), documentSuffix)
			doc, err := s.get(ctx, collection, id)
			if err != nil {
				// Deleted between list and get
				if IsNotFound(err) {
					continue
				}
				return nil, err
			}
			result = append(result, doc)
		}
	}
	return result, nil
}

// Set writes doc under id
func (s *S3Storage) Set(ctx context.Context, collection, id string, doc Document) error {
	return s.put(ctx, collection, id, doc)
}

// Update merges fields into the stored object. S3 has no conditional partial write,
// so concurrent updates from different processes may lose fields.
func (s *S3Storage) Update(ctx context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.get(ctx, collection, id)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	doc.Merge(fields)
	return s.put(ctx, collection, id, doc)
}

// Ping checks if the storage backend is available
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to ping bucket: %w", err)
	}
	return nil
}

// Close is a no-op
func (s *S3Storage) Close() error {
	return nil
}
