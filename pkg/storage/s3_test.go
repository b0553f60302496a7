package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket answering the calls S3Storage makes
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	headErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), pageSize: 2}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

// ListObjectsV2 pages through keys in lexical order using the key as continuation token
func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	if len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3StorageContract(t *testing.T) {
	runStoreContract(t, newS3Storage(newFakeS3(), "investoriq"), "properties")
}

func TestS3StorageLayoutAndPaging(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := newS3Storage(fake, "investoriq")

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Set(ctx, "properties", id, Document{"id": id, "price": int64(100)}))
	}
	require.NoError(t, store.Set(ctx, "advisor_requests", "r", Document{"id": "r"}))
	fake.objects["properties/notes.txt"] = []byte("ignored")

	assert.Contains(t, fake.objects, "properties/a.json")
	assert.JSONEq(t, `{"id":"a","price":100}`, string(fake.objects["properties/a.json"]))

	docs, err := store.List(ctx, "properties")
	require.NoError(t, err)
	require.Len(t, docs, 5)
	for _, d := range docs {
		assert.Equal(t, int64(100), d["price"], "numbers decode as int64")
	}
}

func TestS3StoragePingError(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = errors.New("connection refused")
	err := newS3Storage(fake, "investoriq").Ping(context.Background())
	assert.ErrorContains(t, err, "failed to ping bucket")
}
