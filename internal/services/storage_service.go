// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"image"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/config"
)

// StorageService stores product and review images on S3 (or a simulated
// local store in development) and runs the per-file checks every accepted
// image must pass: size, format, aspect ratio. A thumbnail is generated for
// each stored image.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type StoredImage struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Key          string `json:"key"`
	ThumbnailKey string `json:"thumbnail_key"`
	Size         int64  `json:"size"`
}

var allowedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Local development mode, no S3
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// ValidateImageFile runs the checks that do not require decoding: size limit
// and allowed extensions.
func (s *StorageService) ValidateImageFile(header *multipart.FileHeader) error {
	maxBytes := s.config.Upload.MaxFileSizeMB * 1024 * 1024
	if header.Size > maxBytes {
		return apperrors.Newf(apperrors.KindValidation,
			"file %s exceeds the size limit of %dMB", header.Filename, s.config.Upload.MaxFileSizeMB)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedImageExtensions[ext]; !ok {
		return apperrors.Newf(apperrors.KindValidation,
			"file %s has an unsupported format; only .jpg, .jpeg and .png are allowed", header.Filename)
	}

	return nil
}

// DecodeAndCheck decodes the upload and rejects images whose aspect ratio is
// narrower than the configured minimum (width/height below 0.5 by default).
func (s *StorageService) DecodeAndCheck(file multipart.File, filename string) (image.Image, error) {
	img, err := imaging.Decode(file)
	if err != nil {
		return nil, apperrors.Newf(apperrors.KindValidation, "file %s is not a valid image", filename)
	}

	bounds := img.Bounds()
	if bounds.Dy() > 0 {
		ratio := float64(bounds.Dx()) / float64(bounds.Dy())
		if ratio < s.config.Upload.MinAspectRatio {
			return nil, apperrors.Newf(apperrors.KindValidation,
				"file %s has invalid dimensions; aspect ratio is too narrow", filename)
		}
	}

	return img, nil
}

// StoreImage writes the image and its thumbnail to the object store and
// returns their locations. Callers are responsible for removing both keys if
// the surrounding batch later fails.
func (s *StorageService) StoreImage(img image.Image, originalName, folder string) (*StoredImage, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	contentType := allowedImageExtensions[ext]
	if contentType == "" {
		ext = ".jpg"
		contentType = "image/jpeg"
	}

	key := s.generateKey(originalName, folder)
	thumbKey := s.generateKey(originalName, folder+"/thumbnails")

	encoded, err := encodeImage(img, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	// Thumbnail keeps the aspect ratio at the configured width.
	thumb := imaging.Resize(img, s.config.Upload.ThumbnailWidth, 0, imaging.Lanczos)
	encodedThumb, err := encodeImage(thumb, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := s.putObject(key, encoded, contentType); err != nil {
		return nil, err
	}
	if err := s.putObject(thumbKey, encodedThumb, contentType); err != nil {
		// Avoid an orphaned full-size object when the thumbnail write fails.
		s.RemoveObjects(key)
		return nil, err
	}

	return &StoredImage{
		URL:          s.objectURL(key),
		ThumbnailURL: s.objectURL(thumbKey),
		Key:          key,
		ThumbnailKey: thumbKey,
		Size:         int64(len(encoded)),
	}, nil
}

// RemoveObjects deletes stored objects, logging failures instead of
// propagating them; cleanup runs on error paths that already carry an error.
func (s *StorageService) RemoveObjects(keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if s.s3Client == nil {
			logrus.WithField("key", key).Debug("Local storage mode, object removal skipped")
			continue
		}
		_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
			Bucket: aws.String(s.config.AWS.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to delete object from S3")
		}
	}
}

func (s *StorageService) putObject(key string, data []byte, contentType string) error {
	if s.s3Client == nil {
		// Local development mode simulates the write.
		return nil
	}

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func encodeImage(img image.Image, ext string) ([]byte, error) {
	var buf bytes.Buffer
	format := imaging.JPEG
	if ext == ".png" {
		format = imaging.PNG
	}
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *StorageService) generateKey(originalName, folder string) string {
	id := uuid.New()
	ext := strings.ToLower(filepath.Ext(originalName))
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}
	return filename
}

func (s *StorageService) objectURL(key string) string {
	if s.s3Client == nil {
		return fmt.Sprintf("http://localhost:%s/uploads/%s", s.config.Server.Port, key)
	}
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
