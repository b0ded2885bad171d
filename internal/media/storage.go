package media

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MaxImageSize is the largest accepted product image, in bytes.
const MaxImageSize = 500 * 1024

var (
	ErrTooLarge         = errors.New("image is larger than 500 KB")
	ErrUnsupportedImage = errors.New("file is not a supported image")
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

// Storage keeps uploaded files below a root directory. Stored names are
// relative slash-separated paths such as "store/images/12/<uuid>.png".
type Storage struct {
	root string
}

func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

func (s *Storage) Root() string { return s.root }

// SaveProductImage writes r under the product's image folder and returns the stored name.
func (s *Storage) SaveProductImage(productID int64, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImage
	}

	name := path.Join("store", "images", strconv.FormatInt(productID, 10), uuid.NewString()+ext)
	full := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "create image dir")
	}

	f, err := os.Create(full)
	if err != nil {
		return "", errors.Wrap(err, "create image file")
	}

	// one extra byte tells us the upload was over the limit
	n, err := io.Copy(f, io.LimitReader(r, MaxImageSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", errors.Wrap(err, "write image file")
	}
	if n > MaxImageSize {
		_ = os.Remove(full)
		return "", ErrTooLarge
	}
	return name, nil
}

// Delete removes a stored file. Missing files are ignored.
func (s *Storage) Delete(name string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+name)))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete image file")
	}
	return nil
}

// URL is the public path for a stored name.
func URL(name string) string {
	return "/media/" + strings.TrimPrefix(name, "/")
}
