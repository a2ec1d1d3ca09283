package qr

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampSize(t *testing.T) {
	assert.Equal(t, DefaultSize, ClampSize(0))
	assert.Equal(t, DefaultSize, ClampSize(-5))
	assert.Equal(t, MinSize, ClampSize(10))
	assert.Equal(t, 256, ClampSize(256))
	assert.Equal(t, MaxSize, ClampSize(5000))
}

func TestPNGDecodes(t *testing.T) {
	b, err := PNG("ABC234", 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestImage(t *testing.T) {
	img, err := Image("ABC234", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestDataURL(t *testing.T) {
	u, err := DataURL("ABC234", 128)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestEmptyContent(t *testing.T) {
	_, err := PNG("", 100)
	assert.ErrorIs(t, err, ErrEmptyContent)
}
