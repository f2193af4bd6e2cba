// Package storage keeps uploaded portfolio assets (project images, avatar,
// resume) in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines the object operations the asset store needs.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Kind is the category of an uploaded asset. It is also the key prefix.
type Kind string

const (
	KindImage  Kind = "image"
	KindResume Kind = "resume"
)

var (
	ErrUnknownKind     = errors.New("kind must be image or resume")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
)

// Object describes a stored asset.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Assets validates uploads and stores them under "<kind>/<uuid><ext>".
type Assets struct {
	backend ObjectStorage
	baseURL string
	maxSize int64
}

// NewAssets wraps backend. baseURL is the public prefix objects are served
// from, without the trailing slash.
func NewAssets(backend ObjectStorage, baseURL string, maxSize int64) *Assets {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &Assets{backend: backend, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}
}

// MaxSize is the largest accepted upload in bytes.
func (a *Assets) MaxSize() int64 { return a.maxSize }

// ParseKind accepts the kind form value.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindImage:
		return KindImage, nil
	case KindResume:
		return KindResume, nil
	}
	return "", ErrUnknownKind
}

// Upload sniffs the content type from the first bytes of r rather than
// trusting the client, checks it against kind and stores the object.
func (a *Assets) Upload(ctx context.Context, kind Kind, filename string, r io.Reader, size int64) (Object, error) {
	if size > a.maxSize {
		return Object{}, ErrTooLarge
	}
	if size == 0 {
		return Object{}, ErrEmptyFile
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if err := checkType(kind, contentType); err != nil {
		return Object{}, err
	}

	key := ObjectKey(kind, filename, contentType)
	body := io.MultiReader(bytes.NewReader(head), r)
	if err := a.backend.Put(ctx, key, body, size, contentType); err != nil {
		return Object{}, fmt.Errorf("put %s: %w", key, err)
	}
	return Object{Key: key, URL: a.URL(key), ContentType: contentType, Size: size}, nil
}

// Delete removes an object previously returned by Upload.
func (a *Assets) Delete(ctx context.Context, key string) error {
	return a.backend.Delete(ctx, key)
}

// URL is the public address of key.
func (a *Assets) URL(key string) string {
	return a.baseURL + "/" + key
}

func checkType(kind Kind, contentType string) error {
	switch kind {
	case KindImage:
		if strings.HasPrefix(contentType, "image/") {
			return nil
		}
	case KindResume:
		if contentType == "application/pdf" {
			return nil
		}
	default:
		return ErrUnknownKind
	}
	return ErrUnsupportedType
}

// ObjectKey builds "<kind>/<uuid><ext>". The extension comes from the
// client's filename when it has one, otherwise from the sniffed type.
func ObjectKey(kind Kind, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if !validExt(ext) {
		ext = extFor(contentType)
	}
	return string(kind) + "/" + uuid.NewString() + ext
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func extFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}
