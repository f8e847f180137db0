package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders for upload validation
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/ccellsty/oryxchatfrfr/internal/blob"
	"github.com/ccellsty/oryxchatfrfr/internal/config"
	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
)

const (
	defaultMaxUploadSizeMB = 10
	previewMaxSize         = 512
	previewWebPQuality     = 70
)

// UploadService stages attachments in memory and commits them to the
// blob store. A message can only reference an attachment after its
// commit succeeded, so a stored message never points at a missing
// object.
type UploadService struct {
	store              blob.Store
	maxUploadSizeBytes int64
}

// NewUploadService returns a new UploadService.
func NewUploadService(store blob.Store, cfg *config.Config) *UploadService {
	maxUploadSizeMB := defaultMaxUploadSizeMB
	if cfg != nil && cfg.UploadMaxSizeMB > 0 {
		maxUploadSizeMB = cfg.UploadMaxSizeMB
	}
	return &UploadService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Stage validates an upload without touching the store. Image uploads
// must decode; other content types are accepted as-is.
func (s *UploadService) Stage(filename, contentType string, content []byte) (*models.PendingUpload, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("no file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(
			fmt.Sprintf("file too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	if isImageMIME(contentType) {
		if _, _, err := image.Decode(bytes.NewReader(content)); err != nil {
			return nil, models.NewValidationError("invalid image file")
		}
	}

	return &models.PendingUpload{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	}, nil
}

// Commit writes a staged upload under the owner's key prefix and
// returns the durable reference. Image attachments also get a resized
// WebP preview stored next to the original.
func (s *UploadService) Commit(ctx context.Context, ownerID uint, upload *models.PendingUpload) (*models.AttachmentRef, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if ext == "" {
		ext = extForContentType(upload.ContentType)
	}
	key := fmt.Sprintf("%d/%s%s", ownerID, uuid.NewString(), ext)

	url, err := s.store.Upload(ctx, key, upload.ContentType, upload.Content)
	if err != nil {
		observability.AttachmentUploads.WithLabelValues("error").Inc()
		return nil, models.NewUploadError(err)
	}

	ref := &models.AttachmentRef{Key: key, URL: url}

	if isImageMIME(upload.ContentType) {
		previewKey := strings.TrimSuffix(key, ext) + "_preview.webp"
		preview, err := encodePreview(upload.Content)
		if err != nil {
			// The original is already stored, a lost preview is
			// tolerable.
			observability.Logger.WarnContext(ctx, "preview encode failed",
				"key", key, "error", err)
		} else {
			previewURL, err := s.store.Upload(ctx, previewKey, "image/webp", preview)
			if err != nil {
				observability.Logger.WarnContext(ctx, "preview upload failed",
					"key", previewKey, "error", err)
			} else {
				ref.PreviewURL = previewURL
			}
		}
	}

	observability.AttachmentUploads.WithLabelValues("success").Inc()
	return ref, nil
}

// CommitAvatar writes a staged image to the owner's fixed avatar key,
// replacing any previous avatar. Non-image uploads are rejected.
func (s *UploadService) CommitAvatar(ctx context.Context, ownerID uint, upload *models.PendingUpload) (string, error) {
	if !isImageMIME(upload.ContentType) {
		return "", models.NewValidationError("avatar must be an image")
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if ext == "" {
		ext = extForContentType(upload.ContentType)
	}
	key := fmt.Sprintf("%d/avatar%s", ownerID, ext)

	url, err := s.store.Upload(ctx, key, upload.ContentType, upload.Content)
	if err != nil {
		observability.AttachmentUploads.WithLabelValues("error").Inc()
		return "", models.NewUploadError(err)
	}
	observability.AttachmentUploads.WithLabelValues("success").Inc()
	return url, nil
}

// encodePreview decodes an image and re-encodes it as a bounded WebP.
func encodePreview(content []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	resized := resizeToFit(decoded, previewMaxSize, previewMaxSize)

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, resized, &webp.Options{Quality: previewWebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func isImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func extForContentType(contentType string) string {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
