// Package media stores uploaded post images under MEDIA_ROOT and renders a
// small WebP preview next to each one.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"postboard/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// PostsDir is the directory under the media root that holds post images.
	PostsDir = "posts"
	// PreviewsDir holds the WebP previews, relative to PostsDir.
	PreviewsDir = "previews"

	PreviewMaxSize = 320
	WebPQuality    = 80

	maxFilenameLen = 100
	maxExtLen      = 16
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store writes images to the local filesystem.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore returns a Store rooted at root accepting files up to maxUploadMB.
func NewStore(root string, maxUploadMB int) *Store {
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	return &Store{root: root, maxBytes: int64(maxUploadMB) * 1024 * 1024}
}

// Root returns the directory served at /media.
func (s *Store) Root() string { return s.root }

// Save validates data as an image and stores it as posts/<name>. An existing
// file with the same name gets a short random suffix instead of being
// overwritten. The returned path is relative to the media root.
func (s *Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", imageError("The submitted file is empty.")
	}
	if int64(len(data)) > s.maxBytes {
		return "", imageError(fmt.Sprintf("File too large (max %dMB).", s.maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(data)) {
		return "", imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	dir := filepath.Join(s.root, PostsDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", models.NewInternalError(fmt.Errorf("create media dir: %w", err))
	}

	name := sanitizeFilename(filename)
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if errors.Is(err, os.ErrExist) {
		name = withSuffix(name, uuid.NewString()[:7])
		f, err = os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	}
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("create %s: %w", name, err))
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", models.NewInternalError(fmt.Errorf("write %s: %w", name, err))
	}
	if err := f.Close(); err != nil {
		return "", models.NewInternalError(fmt.Errorf("close %s: %w", name, err))
	}

	if err := s.writePreview(name, decoded); err != nil {
		slog.WarnContext(ctx, "failed to write image preview", "name", name, "err", err)
	}

	return path.Join(PostsDir, name), nil
}

// Delete removes a stored image and its preview. Missing files are ignored.
func (s *Store) Delete(_ context.Context, rel string) error {
	if rel == "" {
		return nil
	}
	name := path.Base(rel)
	for _, p := range []string{
		filepath.Join(s.root, filepath.FromSlash(path.Clean(rel))),
		filepath.Join(s.root, PostsDir, PreviewsDir, previewName(name)),
	} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// PreviewPath returns the preview path, relative to the media root, for a stored image path.
func PreviewPath(rel string) string {
	if rel == "" {
		return ""
	}
	return path.Join(PostsDir, PreviewsDir, previewName(path.Base(rel)))
}

func (s *Store) writePreview(name string, img image.Image) error {
	dir := filepath.Join(s.root, PostsDir, PreviewsDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, resizeToFit(img, PreviewMaxSize, PreviewMaxSize), &webp.Options{Quality: WebPQuality}); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, previewName(name)), buf.Bytes(), 0o640)
}

func imageError(msg string) error {
	return models.NewFieldValidationError(map[string]string{"image": msg})
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "upload"
	}
	if len(name) > maxFilenameLen {
		ext := filepath.Ext(name)
		if len(ext) > maxExtLen {
			ext = ""
		}
		name = strings.TrimRight(name[:maxFilenameLen-len(ext)], "._") + ext
	}
	return name
}

func withSuffix(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + suffix + ext
}

// previewName keeps the original extension so x.png and x.jpg get
// distinct previews.
func previewName(name string) string {
	return name + ".webp"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
