package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// seams for testing the AWS SDK calls
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

func makePictureStorageKey(eventID string) string {
	return fmt.Sprintf("events/%s/pictures/%v", eventID, uuid.New())
}

func (s *EventService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetPictureUploadURL presigns a PUT URL for the event picture and records
// the chosen object key on the event. Organizer only.
func (s *EventService) GetPictureUploadURL(ctx context.Context, eventID, actorID string) (string, error) {
	event, err := s.requireOrganizer(ctx, eventID, actorID)
	if err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", common.ErrorInternal
	}

	bucket := s.config.S3Bucket
	key := makePictureStorageKey(event.ID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.repomanager.Events(s.db).SetPictureKey(ctx, event.ID, key); err != nil {
		return "", common.ErrorInternal
	}

	return req.URL, nil
}

// GetPictureDownloadURL presigns a GET URL for the stored event picture.
func (s *EventService) GetPictureDownloadURL(ctx context.Context, eventID string) (string, error) {
	event, err := s.repomanager.Events(s.db).GetByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	if event.PictureKey == "" {
		return "", common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", common.ErrorInternal
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &event.PictureKey,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", common.ErrorInternal
	}

	return req.URL, nil
}
