// Package mediaservice validates image uploads and stores them under per-user keys.
package mediaservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
	"golang.org/x/exp/rand"
)

const (
	MaxUploadSize = 5 << 20
	DefaultFolder = "banners"
)

var (
	// ErrStorageUnavailable is returned when no object store is configured.
	ErrStorageUnavailable = errors.New("storage is not configured")
	// ErrStoragePolicy is returned when the store refuses the write for lack of permission.
	ErrStoragePolicy = errors.New("storage policy does not allow this upload")
)

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

var (
	folderRX    = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)
	extensionRX = regexp.MustCompile(`^[a-z0-9]{1,5}$`)
)

// ObjectStore is the part of the storage client uploads need.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

type MediaService struct {
	store  ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func NewMediaService(store ObjectStore, logger *slog.Logger) *MediaService {
	return &MediaService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether an object store is configured.
func (s *MediaService) Enabled() bool {
	return s.store != nil
}

type UploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Folder      string
	Body        io.Reader
}

// Upload checks type and size before anything is written and returns the public URL of the
// stored object.
func (s *MediaService) Upload(ctx context.Context, userID uuid.UUID, req *UploadRequest) (string, error) {
	if userID == uuid.Nil {
		return "", common.ErrUnauthorized
	}

	if req.Folder == "" {
		req.Folder = DefaultFolder
	}

	v := common.NewValidator()
	_, allowed := allowedTypes[req.ContentType]
	v.Check(allowed, "file", "invalid file type, only JPEG, PNG, WebP and GIF are allowed")
	v.Check(req.Size <= MaxUploadSize, "file", "file size too large, maximum size is 5MB")
	v.Check(req.Size > 0, "file", "must not be empty")
	v.Check(folderRX.MatchString(req.Folder), "folder", "must only contain lowercase letters, numbers, hyphens and underscores")
	if !v.Valid() {
		return "", v.ValidationError()
	}

	// the declared type must match what the bytes say
	head := make([]byte, 512)
	n, err := io.ReadFull(req.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	head = head[:n]

	if sniffed := http.DetectContentType(head); sniffed != req.ContentType {
		v.AddError("file", "content does not match the declared file type")
		return "", v.ValidationError()
	}

	if s.store == nil {
		return "", ErrStorageUnavailable
	}

	key := s.objectKey(userID, req)
	body := io.MultiReader(bytes.NewReader(head), req.Body)

	err = s.store.Upload(ctx, key, req.ContentType, body, req.Size)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied" {
			s.logger.Warn("upload refused by storage policy", slog.String("key", key))
			return "", ErrStoragePolicy
		}
		return "", err
	}

	return s.store.FileURL(key), nil
}

// objectKey builds <folder>/<user id>/<unix nanos>-<random>.<ext>.
func (s *MediaService) objectKey(userID uuid.UUID, req *UploadRequest) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(req.Filename), "."))
	if !extensionRX.MatchString(ext) {
		ext = allowedTypes[req.ContentType]
	}

	suffix := strconv.FormatUint(rand.Uint64(), 36)

	return fmt.Sprintf("%s/%s/%d-%s.%s", req.Folder, userID, s.now().UnixNano(), suffix, ext)
}
