package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// DefaultS3Prefix is prepended to every snapshot object key.
const DefaultS3Prefix = "morph/sessions/"

// expiresMeta is the object metadata key holding the expiry. S3 has no
// per-object TTL, so expired objects are filtered on Load and removed by
// a bucket lifecycle rule.
const expiresMeta = "expires-at"

// S3API is the part of the S3 client an S3Store uses. *s3.Client
// satisfies it.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Config describes the bucket an S3Store writes to.
type S3Config struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the AWS endpoint, for MinIO and other
	// S3-compatible servers. PathStyle is usually needed with it.
	Endpoint  string
	PathStyle bool

	// Static credentials. Empty keys send anonymous requests.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps snapshots as objects in an S3 bucket. It suits
// deployments where snapshots must outlive a Redis restart.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
	closed atomic.Bool
}

// S3Option configures an S3Store.
type S3Option func(*S3Store)

// WithS3Prefix sets the object key prefix. Default: DefaultS3Prefix.
func WithS3Prefix(prefix string) S3Option {
	return func(s *S3Store) {
		s.prefix = prefix
	}
}

// WithS3Clock replaces time.Now for expiry checks.
func WithS3Clock(now func() time.Time) S3Option {
	return func(s *S3Store) {
		s.now = now
	}
}

// NewS3Store builds an S3 client from cfg.
func NewS3Store(cfg S3Config, opts ...S3Option) *S3Store {
	o := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  aws.AnonymousCredentials{},
	}
	if cfg.Endpoint != "" {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "morph",
		}
		o.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	}
	if cfg.Prefix != "" {
		opts = append([]S3Option{WithS3Prefix(cfg.Prefix)}, opts...)
	}
	return NewS3StoreFromClient(s3.New(o), cfg.Bucket, opts...)
}

// NewS3StoreFromClient wraps an existing client.
func NewS3StoreFromClient(client S3API, bucket string, opts ...S3Option) *S3Store {
	s := &S3Store{client: client, bucket: bucket, prefix: DefaultS3Prefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *S3Store) key(id string) string {
	return s.prefix + id
}

// Ping checks that the bucket is reachable.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// Save implements Store. An expiry in the past deletes the object.
func (s *S3Store) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.put(ctx, id, data, expiresAt)
}

func (s *S3Store) put(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	if !expiresAt.After(s.now()) {
		return s.delete(ctx, id)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Expires:     aws.Time(expiresAt),
		Metadata:    map[string]string{expiresMeta: expiresAt.UTC().Format(time.RFC3339Nano)},
	})
	return err
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, id string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if isNoSuchKey(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	if expiresAt, ok := parseExpiry(out.Metadata); ok && !expiresAt.After(s.now()) {
		// Deleting is best effort; the lifecycle rule catches what is left.
		_ = s.delete(ctx, id)
		return nil, nil
	}
	return io.ReadAll(out.Body)
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.delete(ctx, id)
}

func (s *S3Store) delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if isNoSuchKey(err) {
		return nil
	}
	return err
}

// Touch implements Store by copying the object onto itself with new
// metadata.
func (s *S3Store) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if !expiresAt.After(s.now()) {
		return s.delete(ctx, id)
	}
	key := s.key(id)
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(s.bucket + "/" + url.PathEscape(key)),
		MetadataDirective: types.MetadataDirectiveReplace,
		ContentType:       aws.String("application/json"),
		Expires:           aws.Time(expiresAt),
		Metadata:          map[string]string{expiresMeta: expiresAt.UTC().Format(time.RFC3339Nano)},
	})
	if isNoSuchKey(err) {
		return nil
	}
	return err
}

// SaveAll implements Store. S3 has no multi-object writes, so entries are
// put one by one and the errors joined. Expired entries are skipped.
func (s *S3Store) SaveAll(ctx context.Context, entries map[string]Entry) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	var errs []error
	for id, e := range entries {
		if !e.ExpiresAt.After(s.now()) {
			continue
		}
		if err := s.put(ctx, id, e.Data, e.ExpiresAt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Store. The S3 client holds no connections to release.
func (s *S3Store) Close() error {
	s.closed.Store(true)
	return nil
}

func parseExpiry(meta map[string]string) (time.Time, bool) {
	raw, ok := meta[expiresMeta]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	return t, err == nil
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}
