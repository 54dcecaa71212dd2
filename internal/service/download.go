package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memefinder/internal/domain"
	"github.com/timmy/memefinder/internal/logger"
	"github.com/timmy/memefinder/internal/storage"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotImage is returned for URLs that do not end in a supported image extension.
	ErrNotImage = errors.New("url does not point to a supported image")
	// ErrUpstream is returned when the image host fails or the body is unusable.
	ErrUpstream = errors.New("failed to fetch image")
)

const defaultMaxImageBytes = 20 << 20

// DownloadConfig holds configuration for the download proxy.
type DownloadConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// DownloadService fetches meme images on behalf of the browser and
// optionally archives them to object storage.
type DownloadService struct {
	client   *resty.Client
	archive  storage.ObjectStorage
	maxBytes int64
}

// DownloadedImage is an image ready to be served as an attachment.
type DownloadedImage struct {
	Data        []byte
	ContentType string
	Filename    string
	// Format, Width and Height are empty when the bytes could not be decoded.
	Format string
	Width  int
	Height int
}

// NewDownloadService creates a new download proxy.
// Parameters:
//   - cfg: timeouts and size limit; nil uses defaults.
//   - archive: object storage for archived copies; nil disables archiving.
//
// Returns:
//   - *DownloadService: initialized service.
func NewDownloadService(cfg *DownloadConfig, archive storage.ObjectStorage) *DownloadService {
	if cfg == nil {
		cfg = &DownloadConfig{}
	}

	client := resty.New()
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}

	return &DownloadService{
		client:   client,
		archive:  archive,
		maxBytes: maxBytes,
	}
}

// Fetch downloads the image at imageURL and names it after title.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imageURL: direct image link of a meme.
//   - title: meme title, used for the attachment filename.
//
// Returns:
//   - *DownloadedImage: image bytes and metadata.
//   - error: ErrNotImage for rejected URLs, ErrUpstream for fetch failures.
func (s *DownloadService) Fetch(ctx context.Context, imageURL, title string) (*DownloadedImage, error) {
	if !domain.IsImageURL(imageURL) || !(strings.HasPrefix(imageURL, "https://") || strings.HasPrefix(imageURL, "http://")) {
		return nil, ErrNotImage
	}

	ctx = logger.SetComponent(ctx, "download")
	start := time.Now()

	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d", ErrUpstream, resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrUpstream, s.maxBytes)
	}

	img := &DownloadedImage{
		Data:        data,
		ContentType: resp.Header().Get("Content-Type"),
		Filename:    AttachmentFilename(title),
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Format = format
		img.Width = cfg.Width
		img.Height = cfg.Height
		img.ContentType = "image/" + format
	} else {
		logger.CtxWarn(ctx, "Downloaded bytes are not a decodable image: url=%s, error=%v", imageURL, err)
	}
	if img.ContentType == "" {
		img.ContentType = "application/octet-stream"
	}

	s.archiveImage(ctx, imageURL, img)

	logger.With(logger.Fields{
		logger.FieldSize: len(data),
		"format":         img.Format,
		"width":          img.Width,
		"height":         img.Height,
	}).WithDuration(start).Info(ctx, "Image downloaded: url=%s", imageURL)

	return img, nil
}

// archiveImage stores a copy of the image. Failures are logged only.
func (s *DownloadService) archiveImage(ctx context.Context, imageURL string, img *DownloadedImage) {
	if s.archive == nil {
		return
	}

	key := storage.MemeKey(imageURL)
	exists, err := s.archive.Exists(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to check archive: key=%s, error=%v", key, err)
		return
	}
	if exists {
		return
	}

	if err := s.archive.Upload(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		logger.CtxWarn(ctx, "Failed to archive image: key=%s, error=%v", key, err)
		return
	}
	logger.CtxDebug(ctx, "Image archived: url=%s", s.archive.GetURL(key))
}

// AttachmentFilename returns "<title>.jpg", whatever the real format is.
// Path separators and control characters are replaced and an empty title
// becomes "meme".
func AttachmentFilename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "meme"
	}
	return name + ".jpg"
}

// ContentDisposition formats an attachment header for filename, using the
// RFC 2231 form when the name is not plain ASCII.
func ContentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return `attachment; filename="meme.jpg"`
}
