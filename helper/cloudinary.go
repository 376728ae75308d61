package helper

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"zipline_manager/config"
)

const voucherFolder = "zipline/vouchers"

// VoucherArchive keeps a copy of every gift voucher PDF on Cloudinary.
type VoucherArchive struct {
	cld *cloudinary.Cloudinary
}

func InitCloudinary(cfg config.CloudinaryConfig) (*VoucherArchive, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init failed: %w", err)
	}
	return &VoucherArchive{cld: cld}, nil
}

// Upload stores the PDF under publicID and returns its URL.
func (a *VoucherArchive) Upload(ctx context.Context, publicID string, pdf []byte) (string, error) {
	if a == nil {
		return "", errors.New("voucher archive is not configured")
	}
	resp, err := a.cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       voucherFolder,
		ResourceType: "raw",
		Overwrite:    api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("uploading voucher %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("uploading voucher %s: %s", publicID, resp.Error.Message)
	}
	return resp.SecureURL, nil
}
