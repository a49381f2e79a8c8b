package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"listinghub/internal/config"
	"listinghub/internal/media/sniffer"
	"listinghub/internal/queue"
	"listinghub/internal/storage"
)

// ImageUpload is one multipart file as received by a handler.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var whitespace = regexp.MustCompile(`\s+`)

type UploadService struct {
	store    storage.Store
	queue    TaskQueue
	maxBytes int64
	now      func() time.Time
	log      zerolog.Logger
}

func NewUploadService(store storage.Store, tasks TaskQueue, cfg config.StorageConfig, log zerolog.Logger) *UploadService {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	return &UploadService{
		store:    store,
		queue:    tasks,
		maxBytes: maxBytes,
		now:      time.Now,
		log:      log,
	}
}

func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// SaveProfileImage validates the file and stores it, returning the public reference.
func (s *UploadService) SaveProfileImage(ctx context.Context, up ImageUpload) (string, error) {
	if up.Body == nil {
		return "", validationError("profile_image is empty")
	}
	if up.Size > s.maxBytes {
		return "", validationError("profile_image exceeds %d bytes", s.maxBytes)
	}

	// one extra byte tells us the declared size was a lie
	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", validationError("profile_image is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return "", validationError("profile_image exceeds %d bytes", s.maxBytes)
	}

	img, err := sniffer.CheckUpload(up.Filename, up.ContentType, data)
	if err != nil {
		if errors.Is(err, sniffer.ErrNotAllowed) || errors.Is(err, sniffer.ErrTypeMismatch) {
			return "", validationError("%s", err.Error())
		}
		return "", err
	}

	key := s.objectKey(up.Filename)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), img.MIME); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return s.store.URL(key), nil
}

// Remove deletes a stored file right away. Used to roll back an upload whose
// owning record was never written.
func (s *UploadService) Remove(ctx context.Context, url string) {
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("remove upload failed")
	}
}

// Discard schedules deletion of a file that is no longer referenced.
func (s *UploadService) Discard(ctx context.Context, url string) {
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if s.queue == nil {
		s.Remove(ctx, url)
		return
	}
	if err := s.queue.Enqueue(ctx, queue.TaskMediaDiscard, map[string]any{"key": key}); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("enqueue media discard failed")
	}
}

func (s *UploadService) objectKey(filename string) string {
	name := whitespace.ReplaceAllString(path.Base(strings.ReplaceAll(filename, "\\", "/")), "-")
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), name)
}
