// Package storage keeps citizen face images in S3.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// ErrInvalidImage is returned when the upload is not a base64 image data URL.
var ErrInvalidImage = errors.New("storage: invalid image data")

// S3API is the subset of the S3 client used by FaceStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// FaceStore uploads registration face images. With no bucket configured all
// uploads are skipped.
type FaceStore struct {
	s3Client      S3API
	bucket        string
	publicBaseURL string
	logger        *logging.Logger
	now           func() time.Time
}

// NewFaceStore creates a FaceStore. publicBaseURL is the prefix used to build
// the stored image URL; when empty the virtual-hosted S3 URL is used.
func NewFaceStore(s3Client S3API, bucket, publicBaseURL string, logger *logging.Logger) *FaceStore {
	if logger == nil {
		logger = logging.Default()
	}
	if publicBaseURL == "" && bucket != "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &FaceStore{
		s3Client:      s3Client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

// Enabled reports whether uploads go anywhere.
func (s *FaceStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Key returns the object key for a citizen's face image taken at t.
func Key(aadhaar string, t time.Time) string {
	return fmt.Sprintf("faces/%s-%d.jpg", aadhaar, t.UnixMilli())
}

// SaveFace stores a data URL ("data:image/jpeg;base64,...") or bare base64
// JPEG and returns its public URL. It returns "" when uploads are disabled.
func (s *FaceStore) SaveFace(ctx context.Context, aadhaar, image string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	data, contentType, err := DecodeDataURL(image)
	if err != nil {
		return "", err
	}

	key := Key(aadhaar, s.now())
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	s.logger.Info("stored face image", "s3_key", key, "bytes", len(data))
	return s.publicBaseURL + "/" + key, nil
}

// DecodeDataURL decodes an image data URL. Input without a data: prefix is
// treated as base64 JPEG.
func DecodeDataURL(image string) ([]byte, string, error) {
	image = strings.TrimSpace(image)
	contentType := "image/jpeg"
	if rest, ok := strings.CutPrefix(image, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") || !strings.HasPrefix(meta, "image/") {
			return nil, "", ErrInvalidImage
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		image = payload
	}
	if image == "" {
		return nil, "", ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, contentType, nil
}
