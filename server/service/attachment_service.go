package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	commonlog "inspection_server/server/common/log"
	"inspection_server/server/domain"
	"inspection_server/server/storage"
)

const thumbnailSize = 320

type AttachmentService struct {
	store    storage.BlobStore
	maxBytes int64
	events   *Events
}

func NewAttachmentService(store storage.BlobStore, maxBytes int64, events *Events) *AttachmentService {
	return &AttachmentService{store: store, maxBytes: maxBytes, events: events}
}

// Upload validates and durably stores one attachment, returning its newly
// assigned identifier. Image uploads also get a thumbnail, best-effort.
func (s *AttachmentService) Upload(ctx context.Context, originalName, contentType string, r io.Reader) (domain.Attachment, error) {
	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		return domain.Attachment{}, fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: read upload: %v", domain.ErrStorage, err)
	}
	if len(data) == 0 {
		return domain.Attachment{}, fmt.Errorf("%w: file content is required", domain.ErrValidation)
	}
	if int64(len(data)) > s.maxBytes {
		return domain.Attachment{}, fmt.Errorf("%w: file exceeds maximum size of %d bytes", domain.ErrValidation, s.maxBytes)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	item := domain.Attachment{
		ID:           uuid.NewString(),
		OriginalName: originalName,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		CreatedAt:    time.Now(),
	}
	if err := s.store.Save(ctx, item.ID, originalName, data); err != nil {
		return domain.Attachment{}, err
	}

	if strings.HasPrefix(contentType, "image/") {
		if err := s.makeThumbnail(ctx, item.ID, data); err != nil {
			commonlog.Warnf("thumbnail for attachment %s: %v", item.ID, err)
		} else {
			item.HasThumbnail = true
		}
	}

	s.events.Emit(ctx, "attachment.uploaded", item)
	return item, nil
}

// Download returns the stored content along with the metadata recovered
// from the storage key. Only the key survives a restart, so the content
// type is inferred from the filename extension and the creation time from
// the file's modification time.
func (s *AttachmentService) Download(ctx context.Context, id string) (io.ReadCloser, domain.Attachment, error) {
	rc, info, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, domain.Attachment{}, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(info.OriginalName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	item := domain.Attachment{
		ID:           info.ID,
		OriginalName: info.OriginalName,
		ContentType:  contentType,
		SizeBytes:    info.SizeBytes,
		CreatedAt:    info.ModTime,
	}
	return rc, item, nil
}

func (s *AttachmentService) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, error) {
	return s.store.OpenThumbnail(ctx, id)
}

func (s *AttachmentService) makeThumbnail(ctx context.Context, id string, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, thumb, imaging.JPEG); err != nil {
		return err
	}
	return s.store.SaveThumbnail(ctx, id, buf.Bytes())
}
