package services

import (
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

// Upload kinds; each gets its own directory under the upload root.
const (
	UploadKindTrades     = "trades"
	UploadKindStrategies = "strategies"
	UploadKindImports    = "imports"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type uploadServiceImpl struct {
	uploadDir    string
	maxSizeBytes int64
}

// NewUploadService stores uploaded images on disk under uploadDir/<kind>/ and
// returns stable /uploads/... path strings for the database.
func NewUploadService(uploadDir string, maxSizeBytes int64) UploadService {
	return &uploadServiceImpl{uploadDir: uploadDir, maxSizeBytes: maxSizeBytes}
}

func (s *uploadServiceImpl) SaveImages(kind string, files []*multipart.FileHeader) ([]models.TradeImage, error) {
	dir := filepath.Join(s.uploadDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
	}

	images := make([]models.TradeImage, 0, len(files))
	for _, header := range files {
		if header.Size > s.maxSizeBytes {
			return nil, fmt.Errorf("%w: file %s exceeds the upload size limit", ErrValidation, header.Filename)
		}

		src, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload %s: %w", header.Filename, err)
		}

		safeName := unsafeFilenameChars.ReplaceAllString(filepath.Base(header.Filename), "-")
		uniqueName := fmt.Sprintf("%d-%d-%s", time.Now().UnixNano(), rand.Intn(1_000_000_000), safeName)
		dst, err := os.Create(filepath.Join(dir, uniqueName))
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("creating upload file: %w", err)
		}

		_, copyErr := io.Copy(dst, src)
		src.Close()
		if closeErr := dst.Close(); copyErr == nil {
			copyErr = closeErr
		}
		if copyErr != nil {
			return nil, fmt.Errorf("writing upload %s: %w", uniqueName, copyErr)
		}

		images = append(images, models.TradeImage{
			ImagePath:  fmt.Sprintf("/uploads/%s/%s", kind, uniqueName),
			UploadedAt: time.Now().UTC(),
		})
	}

	logger.L.Info("Images stored", "kind", kind, "count", len(images))
	return images, nil
}
