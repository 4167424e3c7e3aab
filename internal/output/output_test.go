package output

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2024, time.March, 4, 9, 5, 7, 0, time.UTC)

func TestSafeBase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"contacts.csv", "contacts"},
		{"My Report (final).v2.csv", "My_Report__final_"},
		{"  spaced   out .xlsx", "_spaced_out_"},
		{"dir/sub/leads-2024.tsv", "leads-2024"},
		{"Café.csv", "Caf_"},
		{".hidden", DefaultBase},
		{"", DefaultBase},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeBase(tt.in))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "cleaned_contacts_2024-03-04-09-05-07.csv", FileName("cleaned_", "contacts.csv", "csv", stamp))
	assert.Equal(t, "contacts_2024-03-04-09-05-07.json", FileName("", "contacts.csv", "json", stamp))
}

func TestArchiveNames(t *testing.T) {
	zipName, member := ArchiveNames("cleaned_", "contacts.xlsx", "xlsx", stamp)
	assert.Equal(t, "cleaned_contacts_2024-03-04-09-05-07.zip", zipName)
	assert.Equal(t, "contacts_2024-03-04-09-05-07.xlsx", member)
}

func TestLocalSink_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewLocalSink(dir)

	loc, err := sink.Put(context.Background(), "out.csv", []byte("a,b"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.csv"), loc)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestLocalSink_RejectsTraversal(t *testing.T) {
	sink := NewLocalSink(t.TempDir())
	for _, name := range []string{"", "../x.csv", "a/b.csv", `a\b.csv`} {
		_, err := sink.Put(context.Background(), name, nil)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLocalSink_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalSink(t.TempDir()).Put(ctx, "x.csv", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type mockS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.input = params
	if params.Body != nil {
		m.body, _ = io.ReadAll(params.Body)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestNewS3Sink_InvalidConfig(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{Bucket: "b"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestS3Sink_Put(t *testing.T) {
	mock := &mockS3{}
	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket: "exports",
		Region: "us-east-1",
		Prefix: "/cleaned",
	}, WithS3Client(mock))
	require.NoError(t, err)

	loc, err := sink.Put(context.Background(), "out.xlsx", []byte("PK"))
	require.NoError(t, err)
	assert.Equal(t, "s3://exports/cleaned/out.xlsx", loc)
	assert.Equal(t, "exports", aws.ToString(mock.input.Bucket))
	assert.Equal(t, "cleaned/out.xlsx", aws.ToString(mock.input.Key))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", aws.ToString(mock.input.ContentType))
	assert.Equal(t, int64(2), aws.ToInt64(mock.input.ContentLength))
	assert.Equal(t, []byte("PK"), mock.body)
}

func TestS3Sink_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrAccessDenied},
		{"no bucket code", &smithy.GenericAPIError{Code: "NoSuchBucket"}, ErrBucketNotFound},
		{"no bucket type", &types.NoSuchBucket{}, ErrBucketNotFound},
		{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, ErrServiceUnavailable},
		{"deadline", context.DeadlineExceeded, ErrUploadTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := NewS3Sink(context.Background(), S3Config{Bucket: "b", Region: "r"}, WithS3Client(&mockS3{err: tt.err}))
			require.NoError(t, err)
			_, err = sink.Put(context.Background(), "x.csv", []byte("x"))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	sink, err := NewS3Sink(context.Background(), S3Config{Bucket: "b", Region: "r"}, WithS3Client(&mockS3{err: errors.New("boom")}))
	require.NoError(t, err)
	_, err = sink.Put(context.Background(), "x.csv", nil)
	assert.ErrorContains(t, err, "put object: boom")
}
