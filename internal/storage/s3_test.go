package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotify-etl/internal/shared"
)

// mockS3Client lets each test override the operations it exercises.
type mockS3Client struct {
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObjectFunc     func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObjectFunc     func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObjectFunc    func(context.Context, *s3.CopyObjectInput, ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObjectFunc  func(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func (m *mockS3Client) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, in, optFns...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (m *mockS3Client) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, in, optFns...)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(""))}, nil
}

func (m *mockS3Client) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, in, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	if m.CopyObjectFunc != nil {
		return m.CopyObjectFunc(ctx, in, optFns...)
	}
	return &s3.CopyObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.DeleteObjectFunc != nil {
		return m.DeleteObjectFunc(ctx, in, optFns...)
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_List(t *testing.T) {
	t.Run("follows continuation tokens", func(t *testing.T) {
		var calls int
		mock := &mockS3Client{
			ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				calls++
				assert.Equal(t, "bucket", aws.ToString(in.Bucket))
				assert.Equal(t, "raw_data/to_processed/", aws.ToString(in.Prefix))
				if in.ContinuationToken == nil {
					return &s3.ListObjectsV2Output{
						Contents: []awstypes.Object{
							{Key: aws.String("raw_data/to_processed/")},
							{Key: aws.String("raw_data/to_processed/a.json")},
						},
						IsTruncated:           aws.Bool(true),
						NextContinuationToken: aws.String("page-2"),
					}, nil
				}
				assert.Equal(t, "page-2", aws.ToString(in.ContinuationToken))
				return &s3.ListObjectsV2Output{
					Contents:    []awstypes.Object{{Key: aws.String("raw_data/to_processed/b.json")}},
					IsTruncated: aws.Bool(false),
				}, nil
			},
		}

		store := NewS3StoreWithClient(mock, "bucket")
		keys, err := store.List(context.Background(), "raw_data/to_processed")
		require.NoError(t, err)
		assert.Equal(t, []string{"raw_data/to_processed/a.json", "raw_data/to_processed/b.json"}, keys)
		assert.Equal(t, 2, calls)
	})

	t.Run("wraps failures", func(t *testing.T) {
		mock := &mockS3Client{
			ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				return nil, errors.New("access denied")
			},
		}

		_, err := NewS3StoreWithClient(mock, "bucket").List(context.Background(), "raw")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStorage)

		var storeErr *Error
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "list", storeErr.Op)
	})
}

func TestS3Store_Read(t *testing.T) {
	t.Run("returns body", func(t *testing.T) {
		mock := &mockS3Client{
			GetObjectFunc: func(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				assert.Equal(t, "raw/doc.json", aws.ToString(in.Key))
				return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`{"items":[]}`))}, nil
			},
		}

		data, err := NewS3StoreWithClient(mock, "bucket").Read(context.Background(), "raw/doc.json")
		require.NoError(t, err)
		assert.Equal(t, `{"items":[]}`, string(data))
	})

	t.Run("maps NoSuchKey", func(t *testing.T) {
		mock := &mockS3Client{
			GetObjectFunc: func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return nil, &awstypes.NoSuchKey{}
			},
		}

		_, err := NewS3StoreWithClient(mock, "bucket").Read(context.Background(), "missing.json")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, shared.ErrStorage)
	})
}

func TestS3Store_Write(t *testing.T) {
	var got *s3.PutObjectInput
	mock := &mockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			return &s3.PutObjectOutput{}, nil
		},
	}

	payload := []byte("song_id,song_name\n1,One\n")
	err := NewS3StoreWithClient(mock, "bucket").Write(context.Background(), "transformed_data/song_data/s.csv", payload)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "bucket", aws.ToString(got.Bucket))
	assert.Equal(t, "transformed_data/song_data/s.csv", aws.ToString(got.Key))
	assert.Equal(t, int64(len(payload)), aws.ToInt64(got.ContentLength))
	assert.NotEmpty(t, aws.ToString(got.ContentType))

	body, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestS3Store_CopyAndDelete(t *testing.T) {
	t.Run("copy encodes source", func(t *testing.T) {
		var got *s3.CopyObjectInput
		mock := &mockS3Client{
			CopyObjectFunc: func(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
				got = in
				return &s3.CopyObjectOutput{}, nil
			},
		}

		err := NewS3StoreWithClient(mock, "bucket").Copy(context.Background(), "raw/to process/a b.json", "raw/processed/a b.json")
		require.NoError(t, err)
		assert.Equal(t, "bucket/raw/to%20process/a%20b.json", aws.ToString(got.CopySource))
		assert.Equal(t, "raw/processed/a b.json", aws.ToString(got.Key))
	})

	t.Run("delete failure", func(t *testing.T) {
		mock := &mockS3Client{
			DeleteObjectFunc: func(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
				return nil, errors.New("throttled")
			},
		}

		err := NewS3StoreWithClient(mock, "bucket").Delete(context.Background(), "raw/a.json")
		assert.ErrorIs(t, err, shared.ErrStorage)
		assert.Contains(t, err.Error(), "storage.delete raw/a.json")
	})
}
