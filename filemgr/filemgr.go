package filemgr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"solemart/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	// UploadRoot is served at /uploads by the static route.
	UploadRoot = "uploads"

	allowedExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
	}
	allowedMIMEs = map[string]bool{
		"image/jpeg": true, "image/png": true, "image/webp": true, "image/gif": true,
	}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
)

const maxUploadSize = 10 << 20 // 10 MB

// SaveProductImage validates and stores an uploaded product image under
// uploads/products with a generated name, and writes a 300px-wide thumbnail
// alongside it. Returns the web paths of both.
func SaveProductImage(file multipart.File, header *multipart.FileHeader) (imagePath, thumbPath string, err error) {
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}

	buf, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	if len(buf) > maxUploadSize {
		return "", "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(buf)
	if mimeType == "application/octet-stream" {
		if formMime := header.Header.Get("Content-Type"); formMime != "" {
			mimeType = formMime
		}
	}
	if !allowedMIMEs[mimeType] {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidMIME, mimeType)
	}

	destDir := filepath.Join(UploadRoot, "products")
	if err := utils.EnsureDir(destDir); err != nil {
		return "", "", fmt.Errorf("mkdir %s: %w", destDir, err)
	}

	filename := "product-" + uuid.New().String() + ext
	fullPath := filepath.Join(destDir, filename)
	if err := os.WriteFile(fullPath, buf, 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", fullPath, err)
	}

	imagePath = "/uploads/products/" + filename

	// Thumbnail is best-effort: a decode failure leaves only the full image.
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return imagePath, "", nil
	}
	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	thumbName := strings.TrimSuffix(filename, ext) + "_thumb.jpg"
	if err := imaging.Save(thumb, filepath.Join(destDir, thumbName)); err != nil {
		return imagePath, "", nil
	}
	thumbPath = "/uploads/products/" + thumbName
	return imagePath, thumbPath, nil
}
