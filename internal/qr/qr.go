package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 300
	MinSize     = 64
	MaxSize     = 1024
)

var ErrEmptyContent = errors.New("qr: empty content")

// ClampSize maps a requested size onto [MinSize, MaxSize]; zero or
// negative means DefaultSize.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

func encode(content string) (*qrcode.QRCode, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	q.ForegroundColor = color.Black
	q.BackgroundColor = color.White
	return q, nil
}

// Image renders content as a square QR symbol of the given pixel size.
func Image(content string, size int) (image.Image, error) {
	q, err := encode(content)
	if err != nil {
		return nil, err
	}
	return q.Image(ClampSize(size)), nil
}

// PNG is the buffer form used for HTTP responses.
func PNG(content string, size int) ([]byte, error) {
	q, err := encode(content)
	if err != nil {
		return nil, err
	}
	b, err := q.PNG(ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("qr png: %w", err)
	}
	return b, nil
}

func DataURL(content string, size int) (string, error) {
	b, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b), nil
}
