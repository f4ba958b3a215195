package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted image upload.
const MaxImageSize = 10 << 20

// ErrUnsupportedImage is returned for uploads whose extension is not allowed.
var ErrUnsupportedImage = errors.New("invalid file type. Allowed: jpg, jpeg, png, gif, webp")

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageName validates the client file name and returns a fresh
// "<uuid>.<ext>" name to store the upload under.
func ImageName(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return "", ErrUnsupportedImage
	}
	return uuid.NewString() + ext, nil
}

// Storage persists uploaded images and hands back the URL they are served from.
type Storage interface {
	// Save stores data under name and returns its public URL.
	Save(ctx context.Context, name string, data io.Reader) (string, error)

	// Delete removes the object behind a URL returned by Save. URLs this
	// storage does not own are ignored.
	Delete(ctx context.Context, url string) error
}

// LocalStorage keeps images in a directory that the server exposes as static files.
type LocalStorage struct {
	baseDir   string
	urlPrefix string
}

func NewLocalStorage(baseDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalStorage) Save(_ context.Context, name string, data io.Reader) (string, error) {
	name = filepath.Base(name)
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	dest := filepath.Join(s.baseDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close: %w", err)
	}
	return s.urlPrefix + "/" + name, nil
}

func (s *LocalStorage) Delete(_ context.Context, u string) error {
	if !strings.HasPrefix(u, s.urlPrefix+"/") {
		return nil
	}
	name := path.Base(strings.TrimPrefix(u, s.urlPrefix+"/"))
	if name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

// CloudinaryStorage uploads images to a Cloudinary folder.
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStorage(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, name string, data io.Reader) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		PublicID:     strings.TrimSuffix(name, filepath.Ext(name)),
		Folder:       s.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload to Cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, u string) error {
	publicID, ok := cloudinaryPublicID(u)
	if !ok {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: "image"})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete from Cloudinary: %s", res.Error.Message)
	}
	return nil
}

// cloudinaryPublicID extracts "folder/name" from a delivery URL such as
// https://res.cloudinary.com/<cloud>/image/upload/v123/folder/name.png.
func cloudinaryPublicID(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	_, rest, found := strings.Cut(parsed.Path, "/upload/")
	if !found || rest == "" {
		return "", false
	}
	if first, tail, ok := strings.Cut(rest, "/"); ok && isVersionSegment(first) {
		rest = tail
	}
	rest = strings.TrimSuffix(rest, path.Ext(rest))
	return rest, rest != ""
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
