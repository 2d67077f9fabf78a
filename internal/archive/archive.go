package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// S3PutObjectAPI is the subset of the S3 client used for archiving.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput,
		optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores each submission as a JSON object in a bucket.
type S3Archiver struct {
	Client S3PutObjectAPI
	Bucket string
	Prefix string
}

// ObjectKey returns <prefix>/YYYY/MM/DD/<id>.json for the submission.
func (a *S3Archiver) ObjectKey(submission models.Submission) string {
	return path.Join(a.Prefix,
		submission.ReceivedAt.UTC().Format("2006/01/02"),
		submission.ID.String()+".json")
}

// Record uploads the submission.
func (a *S3Archiver) Record(ctx context.Context, submission models.Submission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("could not serialize submission: %w", err)
	}

	key := a.ObjectKey(submission)
	logger := zerolog.Ctx(ctx).With().Str("bucket", a.Bucket).Str("key", key).Logger()

	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("failed to upload submission to s3://%s/%s: %s: %w",
				a.Bucket, key, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("failed to upload submission to s3://%s/%s: %w", a.Bucket, key, err)
	}

	logger.Debug().Msg("Submission archived")
	return nil
}
