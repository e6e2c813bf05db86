package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("6f1c1c1e-8a43-4c3b-9a57-0d0b8f1f0a11")
	at := time.Date(2024, 3, 5, 10, 4, 5, 0, time.UTC)

	assert.Equal(t, "6f1c1c1e-8a43-4c3b-9a57-0d0b8f1f0a11/20240305T100405Z.pdf",
		newWithClient(newFakeBucket(), "b", "").Key(id, at))
	assert.Equal(t, "resumes/6f1c1c1e-8a43-4c3b-9a57-0d0b8f1f0a11/20240305T100405Z.pdf",
		newWithClient(newFakeBucket(), "b", "/resumes/").Key(id, at))
}

func TestUploadDownload(t *testing.T) {
	bucket := newFakeBucket()
	s := newWithClient(bucket, "b", "pdfs")
	ctx := context.Background()

	key, err := s.Upload(ctx, uuid.New(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", bucket.types[key])

	data, err := s.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestUpload_Errors(t *testing.T) {
	bucket := newFakeBucket()
	s := newWithClient(bucket, "b", "")

	_, err := s.Upload(context.Background(), uuid.New(), nil)
	assert.ErrorContains(t, err, "empty PDF")

	bucket.putErr = errors.New("access denied")
	_, err = s.Upload(context.Background(), uuid.New(), []byte("x"))
	assert.ErrorContains(t, err, "access denied")
}

func TestDownload_Missing(t *testing.T) {
	s := newWithClient(newFakeBucket(), "b", "")
	_, err := s.Download(context.Background(), "nope.pdf")
	assert.Error(t, err)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "bucket is required")
}
