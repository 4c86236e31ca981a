package session_test

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/morph/pkg/session"
)

type object struct {
	data []byte
	meta map[string]string
}

// fakeS3 is an in-memory bucket speaking the subset of S3 the store uses.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]object
	puts    int
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string]object{}}
}

func (f *fakeS3) checkBucket(b *string) error {
	if aws.ToString(b) != f.bucket {
		return &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "no bucket " + aws.ToString(b)}
	}
	return nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = object{data: data, meta: in.Metadata}
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(obj.data)),
		Metadata: obj.meta,
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	bucket, escaped, _ := strings.Cut(aws.ToString(in.CopySource), "/")
	src, err := url.PathUnescape(escaped)
	if err != nil || bucket != f.bucket {
		return nil, &smithy.GenericAPIError{Code: "InvalidArgument"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[src]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	if in.MetadataDirective == types.MetadataDirectiveReplace {
		obj.meta = in.Metadata
	}
	f.objects[aws.ToString(in.Key)] = obj
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) get(key string) (object, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

func TestS3Store_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) session.Store {
		return session.NewS3StoreFromClient(newFakeS3("snapshots"), "snapshots")
	})
}

func TestS3Store_KeysAndMetadata(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3("snapshots")
	s := session.NewS3StoreFromClient(fake, "snapshots", session.WithS3Prefix("app/"))
	require.NoError(t, s.Ping(ctx))

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.Save(ctx, "abc", []byte(`{"seq":1}`), expires))

	obj, ok := fake.get("app/abc")
	require.True(t, ok)
	assert.Equal(t, `{"seq":1}`, string(obj.data))
	assert.Equal(t, "2030-01-02T03:04:05Z", obj.meta["expires-at"])

	later := expires.Add(time.Hour)
	require.NoError(t, s.Touch(ctx, "abc", later))
	obj, _ = fake.get("app/abc")
	assert.Equal(t, "2030-01-02T04:04:05Z", obj.meta["expires-at"])
	assert.Equal(t, `{"seq":1}`, string(obj.data))
}

func TestS3Store_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	fake := newFakeS3("b")
	s := session.NewS3StoreFromClient(fake, "b", session.WithS3Clock(func() time.Time { return now }))

	require.NoError(t, s.Save(ctx, "a", []byte("x"), now.Add(time.Minute)))
	now = now.Add(2 * time.Minute)

	data, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, data)
	_, ok := fake.get(session.DefaultS3Prefix + "a")
	assert.False(t, ok, "expired object should be deleted on load")

	require.NoError(t, s.Touch(ctx, "a", now.Add(-time.Second)))
	require.NoError(t, s.SaveAll(ctx, map[string]session.Entry{
		"old": {Data: []byte("1"), ExpiresAt: now},
		"new": {Data: []byte("2"), ExpiresAt: now.Add(time.Minute)},
	}))
	assert.Equal(t, 2, fake.puts)
}

func TestS3Store_Errors(t *testing.T) {
	ctx := context.Background()
	s := session.NewS3StoreFromClient(newFakeS3("real"), "missing")

	var apiErr smithy.APIError
	require.ErrorAs(t, s.Ping(ctx), &apiErr)
	assert.Equal(t, "NoSuchBucket", apiErr.ErrorCode())

	_, err := s.Load(ctx, "a")
	assert.Error(t, err)
	assert.Error(t, s.SaveAll(ctx, map[string]session.Entry{
		"a": {Data: []byte("1"), ExpiresAt: time.Now().Add(time.Minute)},
	}))
}

func TestNewS3Store(t *testing.T) {
	s := session.NewS3Store(session.S3Config{
		Bucket:          "b",
		Prefix:          "p/",
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9000",
		PathStyle:       true,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NotNil(t, s)
	assert.NoError(t, s.Close())
	assert.ErrorIs(t, s.Delete(context.Background(), "a"), session.ErrStoreClosed)
}
