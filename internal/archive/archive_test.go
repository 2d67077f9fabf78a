package archive

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput,
	optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {

	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func testSubmission() models.Submission {
	return models.Submission{
		ID:         uuid.MustParse("6f1c1b5e-3d0a-4c55-9c1e-0d6b7f1a2b3c"),
		ReceivedAt: time.Date(2024, 11, 3, 23, 59, 0, 0, time.UTC),
		Payload:    json.RawMessage(`[1,2,3]`),
	}
}

func TestS3Archiver_ObjectKey(t *testing.T) {
	a := &S3Archiver{Prefix: "echo/"}
	assert.Equal(t, "echo/2024/11/03/6f1c1b5e-3d0a-4c55-9c1e-0d6b7f1a2b3c.json",
		a.ObjectKey(testSubmission()))

	a = &S3Archiver{}
	assert.Equal(t, "2024/11/03/6f1c1b5e-3d0a-4c55-9c1e-0d6b7f1a2b3c.json",
		a.ObjectKey(testSubmission()))
}

func TestS3Archiver_Record(t *testing.T) {
	client := &MockS3Client{}
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, err := io.ReadAll(in.Body)
		if err != nil {
			return false
		}
		var stored models.Submission
		if err := json.Unmarshal(body, &stored); err != nil {
			return false
		}
		return *in.Bucket == "received-data" &&
			*in.Key == "echo/2024/11/03/6f1c1b5e-3d0a-4c55-9c1e-0d6b7f1a2b3c.json" &&
			*in.ContentType == "application/json" &&
			string(stored.Payload) == `[1,2,3]`
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	a := &S3Archiver{Client: client, Bucket: "received-data", Prefix: "echo"}
	err := a.Record(context.Background(), testSubmission())

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestS3Archiver_RecordAPIError(t *testing.T) {
	client := &MockS3Client{}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil,
		&smithy.GenericAPIError{Code: "NoSuchBucket", Message: "bucket missing"})

	a := &S3Archiver{Client: client, Bucket: "missing"}
	err := a.Record(context.Background(), testSubmission())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchBucket")
	assert.Contains(t, err.Error(), "s3://missing/")
}
