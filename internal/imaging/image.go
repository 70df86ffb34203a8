// Package imaging handles the base64 and data-URI plumbing between the
// pipeline, the vision models, and the overlay renderer.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
)

// ImageLoadError wraps a failure to decode or fetch a source image.
type ImageLoadError struct {
	Err error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image: %v", e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

var dataURIPattern = regexp.MustCompile(`^data:image/[a-z+.-]+;base64,(.*)$`)

// StripDataURI returns the bare base64 payload of a data URI, or the input
// unchanged when it carries no data-URI prefix.
func StripDataURI(s string) string {
	if m := dataURIPattern.FindStringSubmatch(s); len(m) == 2 {
		return m[1]
	}
	return s
}

// DecodeBase64 decodes a bare base64 image payload into a raster image.
func DecodeBase64(imageB64 string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(StripDataURI(imageB64))
	if err != nil {
		return nil, &ImageLoadError{Err: fmt.Errorf("bad base64 payload: %w", err)}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageLoadError{Err: err}
	}
	return img, nil
}

// EncodePNGBase64 encodes a raster image as a bare base64 PNG payload.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DataURI wraps a bare base64 payload as a data URI, sniffing the MIME type
// from the decoded bytes.
func DataURI(imageB64 string) string {
	data, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return "data:image/png;base64," + imageB64
	}
	return fmt.Sprintf("data:%s;base64,%s", sniffMIME(data), imageB64)
}

func sniffMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("\xFF\xD8\xFF")):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "image/gif"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/png"
	}
}

// ReadFileBase64 reads a local image file into a bare base64 payload.
func ReadFileBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ImageLoadError{Err: err}
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// FetchBase64 downloads a chart image over HTTP and returns it as a bare
// base64 payload.
func FetchBase64(url string) (string, error) {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	resp, err := client.R().Get(url)
	if err != nil {
		return "", &ImageLoadError{Err: fmt.Errorf("failed to download image: %w", err)}
	}
	if resp.StatusCode() != 200 {
		return "", &ImageLoadError{Err: fmt.Errorf("failed to download image, status: %d", resp.StatusCode())}
	}
	return base64.StdEncoding.EncodeToString(resp.Body()), nil
}

// SavePNG decodes a bare base64 payload and writes it to disk as PNG.
func SavePNG(imageB64, path string) error {
	img, err := DecodeBase64(imageB64)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}
