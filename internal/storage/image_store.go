// Package storage keeps uploaded identity document photos on local disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/terraincognita07/diabeticqr/internal/security"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	PublicPrefix = "/uploads/"

	DefaultMaxBytes    int64 = 10 << 20
	DefaultMaxWidth          = 1600
	DefaultJPEGQuality       = 82
	DefaultMaxPixels   int64 = 40_000_000

	maxSafeNameLength = 80
)

var (
	ErrEmptyUpload       = errors.New("uploaded file is empty")
	ErrUploadTooLarge    = errors.New("uploaded file is too large")
	ErrUnsupportedUpload = errors.New("uploaded file is not a supported image")
)

var acceptedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

type Options struct {
	Dir         string
	MaxBytes    int64
	MaxWidth    int
	JPEGQuality int
	// MaxPixels caps the decoded width*height so a small file cannot claim
	// a huge canvas.
	MaxPixels int64
}

// ImageStore resizes uploaded photos before writing them under Dir.
type ImageStore struct {
	dir         string
	maxBytes    int64
	maxWidth    int
	jpegQuality int
	maxPixels   int64
	now         func() time.Time
}

func NewImageStore(options Options) (*ImageStore, error) {
	dir := strings.TrimSpace(options.Dir)
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	store := &ImageStore{
		dir:         dir,
		maxBytes:    options.MaxBytes,
		maxWidth:    options.MaxWidth,
		jpegQuality: options.JPEGQuality,
		maxPixels:   options.MaxPixels,
		now:         time.Now,
	}
	if store.maxBytes <= 0 {
		store.maxBytes = DefaultMaxBytes
	}
	if store.maxWidth <= 0 {
		store.maxWidth = DefaultMaxWidth
	}
	if store.jpegQuality <= 0 || store.jpegQuality > 100 {
		store.jpegQuality = DefaultJPEGQuality
	}
	if store.maxPixels <= 0 {
		store.maxPixels = DefaultMaxPixels
	}
	return store, nil
}

func (store *ImageStore) Dir() string {
	return store.dir
}

func (store *ImageStore) MaxBytes() int64 {
	return store.maxBytes
}

// Save stores one image and returns its public URL path. PNG uploads stay
// PNG, everything else is re-encoded as JPEG.
func (store *ImageStore) Save(prefix string, filename string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(reader, store.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}
	if int64(len(data)) > store.maxBytes {
		return "", ErrUploadTooLarge
	}
	if _, ok := acceptedContentTypes[http.DetectContentType(data)]; !ok {
		return "", ErrUnsupportedUpload
	}

	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || config.Width <= 0 || config.Height <= 0 {
		return "", ErrUnsupportedUpload
	}
	if int64(config.Width)*int64(config.Height) > store.maxPixels {
		return "", ErrUnsupportedUpload
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrUnsupportedUpload
	}
	img = downscale(img, store.maxWidth)

	var encoded bytes.Buffer
	extension := ".jpg"
	if format == "png" {
		extension = ".png"
		err = png.Encode(&encoded, img)
	} else {
		err = jpeg.Encode(&encoded, flatten(img), &jpeg.Options{Quality: store.jpegQuality})
	}
	if err != nil {
		return "", fmt.Errorf("encode %s upload: %w", format, err)
	}

	suffix, err := security.NewUploadSuffix()
	if err != nil {
		return "", fmt.Errorf("generate upload name: %w", err)
	}
	name := fmt.Sprintf("%s-%d-%s-%s", safePrefix(prefix), store.now().UnixMilli(), suffix, SafeName(filename, extension))

	if err := writeFileAtomic(filepath.Join(store.dir, name), encoded.Bytes()); err != nil {
		return "", err
	}
	return PublicPrefix + name, nil
}

// Delete removes a file previously returned by Save. Paths outside the
// upload directory and remote URLs are ignored.
func (store *ImageStore) Delete(urlPath string) error {
	name, ok := store.localName(urlPath)
	if !ok {
		return nil
	}
	if err := os.Remove(filepath.Join(store.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload %s: %w", name, err)
	}
	return nil
}

func (store *ImageStore) localName(urlPath string) (string, bool) {
	urlPath = strings.TrimSpace(urlPath)
	if !strings.HasPrefix(urlPath, PublicPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(urlPath, PublicPrefix)
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." || name == "." {
		return "", false
	}
	return name, true
}

// SafeName keeps the readable part of an uploaded filename and swaps its
// extension for the stored format.
func SafeName(filename string, extension string) string {
	name := strings.NewReplacer("/", "-", `\`, "-").Replace(strings.TrimSpace(filename))
	if ext := filepath.Ext(name); isPlainExtension(ext) {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case r == ' ' || r == '?' || r == '#' || r == '%' || r == '"' || r == '<' || r == '>':
			return '-'
		}
		return r
	}, name)
	name = strings.Trim(name, ".-")

	runes := []rune(name)
	if len(runes) > maxSafeNameLength {
		name = string(runes[:maxSafeNameLength])
	}
	if name == "" {
		name = "image"
	}
	return name + extension
}

func isPlainExtension(ext string) bool {
	if ext == "" || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func safePrefix(prefix string) string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, prefix)
	if cleaned == "" {
		return "img"
	}
	return cleaned
}

func downscale(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	if maxWidth <= 0 || bounds.Dx() <= maxWidth {
		return src
	}

	height := int(math.Round(float64(bounds.Dy()) * float64(maxWidth) / float64(bounds.Dx())))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// JPEG has no alpha channel; transparent pixels end up white instead of black.
func flatten(src image.Image) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

func writeFileAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create upload temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod upload: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}
