package report

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Assets are the images embedded in every report as data URIs
type Assets struct {
	LogoURI   template.URL
	QRCodeURI template.URL
}

var (
	logoCandidates   = []string{"boeira_logo.png", "boeira_logo.jpg", "boeira_logo.jpeg"}
	qrcodeCandidates = []string{"qrcode.png", "qrcode.jpg", "qrcode.jpeg", "qrcode.svg"}
)

// LoadAssets reads the logo and QR code from dir. Missing images are left
// empty and the template omits them; an empty dir loads nothing.
func LoadAssets(dir string) (Assets, error) {
	if dir == "" {
		return Assets{}, nil
	}

	logo, err := loadDataURI(dir, logoCandidates)
	if err != nil {
		return Assets{}, fmt.Errorf("failed to load logo: %w", err)
	}
	qrcode, err := loadDataURI(dir, qrcodeCandidates)
	if err != nil {
		return Assets{}, fmt.Errorf("failed to load QR code: %w", err)
	}

	return Assets{LogoURI: logo, QRCodeURI: qrcode}, nil
}

func loadDataURI(dir string, candidates []string) (template.URL, error) {
	for _, name := range candidates {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return DataURI(name, data), nil
	}
	return "", nil
}

// DataURI encodes data as a base64 data URI, picking the MIME type from name
func DataURI(name string, data []byte) template.URL {
	mime := "image/jpeg"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		mime = "image/png"
	case ".svg":
		mime = "image/svg+xml"
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}
