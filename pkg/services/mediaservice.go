package services

import (
	"context"
	"time"

	"github.com/cloudinary/cloudinary-go"
	"github.com/cloudinary/cloudinary-go/api/uploader"
	"github.com/pkg/errors"
)

// MediaUpload uploads attachment images and returns their hosted URL.
type MediaUpload interface {
	FileUpload(ctx context.Context, file any) (string, error)
}

// CloudinaryMedia hosts attachment images on Cloudinary.
type CloudinaryMedia struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryMedia(cloudName, apiKey, apiSecret, folder string) (*CloudinaryMedia, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, errors.Wrap(err, "init cloudinary")
	}
	return &CloudinaryMedia{cld: cld, folder: folder}, nil
}

func (m *CloudinaryMedia) FileUpload(ctx context.Context, file any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 40*time.Second)
	defer cancel()

	uploadRes, err := m.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: m.folder})
	if err != nil {
		return "", errors.Wrap(err, "upload attachment image")
	}
	return uploadRes.SecureURL, nil
}
