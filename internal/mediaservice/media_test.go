package mediaservice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/postline/internal/common"
)

type fakeStore struct {
	err     error
	key     string
	ctype   string
	content []byte
}

func (f *fakeStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if f.err != nil {
		return f.err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	f.key = key
	f.ctype = contentType
	f.content = data
	return nil
}

func (f *fakeStore) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 600)...)

func newTestService(store ObjectStore) *MediaService {
	s := NewMediaService(store, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	s.now = func() time.Time { return time.Unix(0, 1700000000000000000) }
	return s
}

func TestUpload(t *testing.T) {
	userID := uuid.MustParse("0b6f5c36-4f6d-4a35-9d55-1b8a3a5e7c11")

	testCases := []struct {
		name        string
		userID      uuid.UUID
		req         UploadRequest
		keyRX       string
		expectedErr error
	}{
		{
			name:   "png into default folder",
			userID: userID,
			req:    UploadRequest{Filename: "Banner.PNG", ContentType: "image/png", Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes)},
			keyRX:  `^banners/` + userID.String() + `/1700000000000000000-[0-9a-z]+\.png$`,
		},
		{
			name:   "odd extension falls back to type",
			userID: userID,
			req:    UploadRequest{Filename: "avatar", ContentType: "image/png", Size: int64(len(pngBytes)), Folder: "avatars", Body: bytes.NewReader(pngBytes)},
			keyRX:  `^avatars/` + userID.String() + `/1700000000000000000-[0-9a-z]+\.png$`,
		},
		{
			name:        "anonymous",
			userID:      uuid.Nil,
			req:         UploadRequest{ContentType: "image/png", Size: 10, Body: bytes.NewReader(pngBytes)},
			expectedErr: common.ErrUnauthorized,
		},
		{
			name:        "wrong type",
			userID:      userID,
			req:         UploadRequest{Filename: "doc.pdf", ContentType: "application/pdf", Size: 10, Body: strings.NewReader("%PDF")},
			expectedErr: common.ValidationError{Errors: map[string]string{"file": "invalid file type, only JPEG, PNG, WebP and GIF are allowed"}},
		},
		{
			name:        "too large",
			userID:      userID,
			req:         UploadRequest{Filename: "big.png", ContentType: "image/png", Size: MaxUploadSize + 1, Body: bytes.NewReader(pngBytes)},
			expectedErr: common.ValidationError{Errors: map[string]string{"file": "file size too large, maximum size is 5MB"}},
		},
		{
			name:        "folder traversal",
			userID:      userID,
			req:         UploadRequest{Filename: "a.png", ContentType: "image/png", Size: 10, Folder: "../etc", Body: bytes.NewReader(pngBytes)},
			expectedErr: common.ValidationError{Errors: map[string]string{"folder": "must only contain lowercase letters, numbers, hyphens and underscores"}},
		},
		{
			name:        "declared type lies",
			userID:      userID,
			req:         UploadRequest{Filename: "a.gif", ContentType: "image/gif", Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes)},
			expectedErr: common.ValidationError{Errors: map[string]string{"file": "content does not match the declared file type"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			s := newTestService(store)

			url, err := s.Upload(context.Background(), tc.userID, &tc.req)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				assert.Regexp(t, regexp.MustCompile(tc.keyRX), store.key)
				assert.Equal(t, "https://cdn.example.com/"+store.key, url)
				assert.Equal(t, pngBytes, store.content)
				assert.Equal(t, "image/png", store.ctype)
			} else {
				assert.Empty(t, store.key)
			}
		})
	}
}

func TestUploadStoreErrors(t *testing.T) {
	userID := uuid.New()
	req := func() *UploadRequest {
		return &UploadRequest{Filename: "a.png", ContentType: "image/png", Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes)}
	}

	s := newTestService(&fakeStore{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}})
	_, err := s.Upload(context.Background(), userID, req())
	assert.Equal(t, ErrStoragePolicy, err)

	boom := errors.New("connection reset")
	s = newTestService(&fakeStore{err: boom})
	_, err = s.Upload(context.Background(), userID, req())
	assert.Equal(t, boom, err)

	s = newTestService(nil)
	_, err = s.Upload(context.Background(), userID, req())
	assert.Equal(t, ErrStorageUnavailable, err)
}

func TestObjectKeysDiffer(t *testing.T) {
	s := newTestService(&fakeStore{})
	req := &UploadRequest{Filename: "a.png", ContentType: "image/png", Folder: "banners"}
	userID := uuid.New()

	first := s.objectKey(userID, req)
	second := s.objectKey(userID, req)
	require.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
