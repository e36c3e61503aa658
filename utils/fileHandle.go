package utils

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxPictureSize bounds profile picture uploads.
const MaxPictureSize = 2 << 20

// UploadsPath is the URL prefix the upload directory is served under.
const UploadsPath = "/uploads"

var (
	ErrUnsupportedPicture = errors.New("picture must be a jpeg, png or webp image")
	ErrPictureTooLarge    = errors.New("picture must be 2MB or smaller")
)

var pictureTypes = []string{"image/jpeg", "image/png", "image/webp"}

// SavePicture sniffs the upload, stores it under destDir with a random name
// and returns the stored file name.
func SavePicture(file *multipart.FileHeader, destDir string) (string, error) {
	if file.Size > MaxPictureSize {
		return "", ErrPictureTooLarge
	}

	// Open the uploaded file
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !mimetype.EqualsAny(mtype.String(), pictureTypes...) {
		return "", ErrUnsupportedPicture
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	newFilename := uuid.NewString() + mtype.Extension()
	dst, err := os.Create(filepath.Join(destDir, newFilename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, MaxPictureSize)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// GetFileURL returns the public URL of a stored upload.
func GetFileURL(name string) string {
	if name == "" {
		return ""
	}
	return UploadsPath + "/" + name
}

// RemoveUpload deletes a file previously returned by GetFileURL. URLs that do
// not point into the upload directory are ignored.
func RemoveUpload(destDir, url string) error {
	name, ok := strings.CutPrefix(url, UploadsPath+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(destDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
