package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/apperr"
)

type fakeS3 struct {
	pages        [][]types.Object
	listCalls    []*s3.ListObjectsV2Input
	deleteInputs []*s3.DeleteObjectsInput
	deleteErrs   []types.Error
	deleteErr    error
	put          *s3.PutObjectInput
	deleted      []string
	headErr      error
	created      bool
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listCalls = append(f.listCalls, in)
	idx := len(f.listCalls) - 1
	out := &s3.ListObjectsV2Output{Contents: f.pages[idx]}
	if idx < len(f.pages)-1 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("page-" + string(rune('1'+idx)))
	}
	return out, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleteInputs = append(f.deleteInputs, in)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &s3.DeleteObjectsOutput{Errors: f.deleteErrs}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = true
	return &s3.CreateBucketOutput{}, nil
}

var testConfig = S3Config{
	Region:       "auto",
	Bucket:       "links",
	AccessKey:    "key",
	SecretKey:    "secret",
	Endpoint:     "https://account.r2.cloudflarestorage.com",
	PublicDomain: "cdn.example.com",
}

func obj(key string, size int64) types.Object {
	return types.Object{Key: aws.String(key), Size: aws.Int64(size), LastModified: aws.Time(time.Unix(1700000000, 0))}
}

func TestListFollowsPagination(t *testing.T) {
	api := &fakeS3{pages: [][]types.Object{
		{obj("users/u1/a", 1), obj("users/u1/b", 2)},
		{obj("users/u1/c", 3)},
	}}
	store := newS3Storage(api, testConfig)

	objects, err := store.List(context.Background(), "users/u1/")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, "users/u1/c", objects[2].Key)
	assert.Equal(t, int64(3), objects[2].Size)

	require.Len(t, api.listCalls, 2)
	assert.Equal(t, "users/u1/", aws.ToString(api.listCalls[0].Prefix))
	assert.Nil(t, api.listCalls[0].ContinuationToken)
	assert.Equal(t, "page-1", aws.ToString(api.listCalls[1].ContinuationToken))
}

func TestDeleteBatchReportsPerKeyErrors(t *testing.T) {
	api := &fakeS3{deleteErrs: []types.Error{
		{Key: aws.String("users/u1/b"), Code: aws.String("AccessDenied"), Message: aws.String("denied")},
	}}
	store := newS3Storage(api, testConfig)

	keyErrs, err := store.DeleteBatch(context.Background(), []string{"users/u1/a", "users/u1/b"})
	require.NoError(t, err)
	require.Len(t, keyErrs, 1)
	assert.Equal(t, KeyError{Key: "users/u1/b", Code: "AccessDenied", Message: "denied"}, keyErrs[0])

	require.Len(t, api.deleteInputs, 1)
	in := api.deleteInputs[0]
	assert.True(t, aws.ToBool(in.Delete.Quiet))
	assert.Len(t, in.Delete.Objects, 2)
}

func TestDeleteBatchLimits(t *testing.T) {
	api := &fakeS3{}
	store := newS3Storage(api, testConfig)

	keyErrs, err := store.DeleteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, keyErrs)
	assert.Empty(t, api.deleteInputs)

	_, err = store.DeleteBatch(context.Background(), make([]string, MaxDeleteBatch+1))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, api.deleteInputs)
}

func TestDeleteBatchCallFailure(t *testing.T) {
	api := &fakeS3{deleteErr: errors.New("connection reset")}
	store := newS3Storage(api, testConfig)

	_, err := store.DeleteBatch(context.Background(), []string{"users/u1/a"})
	assert.Error(t, err)
}

func TestPutSetsMetadata(t *testing.T) {
	api := &fakeS3{}
	store := newS3Storage(api, testConfig)

	err := store.Put(context.Background(), "users/u1/x.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	require.NotNil(t, api.put)
	assert.Equal(t, "users/u1/x.png", aws.ToString(api.put.Key))
	assert.Equal(t, int64(3), aws.ToInt64(api.put.ContentLength))
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
}

func TestPublicURL(t *testing.T) {
	store := newS3Storage(&fakeS3{}, testConfig)
	assert.Equal(t, "https://cdn.example.com", store.PublicBase())
	assert.Equal(t, "https://cdn.example.com/users/u1/x.png", store.PublicURL("users/u1/x.png"))

	cfg := testConfig
	cfg.PublicDomain = ""
	store = newS3Storage(&fakeS3{}, cfg)
	assert.Equal(t, "https://account.r2.cloudflarestorage.com/links", store.PublicBase())

	cfg.Endpoint = ""
	cfg.Region = "eu-west-1"
	store = newS3Storage(&fakeS3{}, cfg)
	assert.Equal(t, "https://links.s3.eu-west-1.amazonaws.com", store.PublicBase())
}

func TestEnsureBucketCreatesMissingBucket(t *testing.T) {
	api := &fakeS3{headErr: errors.New("not found")}
	store := newS3Storage(api, testConfig)

	require.NoError(t, store.EnsureBucket(context.Background()))
	assert.True(t, api.created)
}

func TestNewS3StorageValidatesConfig(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{Bucket: "links"})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
	assert.Contains(t, err.Error(), "access key")
}

func TestNewS3StorageLoadsAWSConfig(t *testing.T) {
	orig := loadDefaultAWSConfig
	defer func() { loadDefaultAWSConfig = orig }()

	var loaded bool
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		loaded = true
		return aws.Config{Region: "auto"}, nil
	}

	store, err := NewS3Storage(context.Background(), testConfig)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "https://cdn.example.com", store.PublicBase())

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}
	_, err = NewS3Storage(context.Background(), testConfig)
	assert.Error(t, err)
}
