package utils

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 3, ParseInt(" 3 ", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("three", 1))
	assert.Equal(t, -2, ParseInt("-2", 1))
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "yes", " on "} {
		assert.True(t, ParseBool(s), s)
	}
	for _, s := range []string{"", "0", "false", "nope"} {
		assert.False(t, ParseBool(s), s)
	}
}

func TestWriteJSONAndError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rr.Body.String())

	rr = httptest.NewRecorder()
	WriteError(rr, http.StatusBadGateway, "Failed to fetch products")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch products"}`, rr.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Query string `json:"query"`
	}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"query":"phone"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &body))
	assert.Equal(t, "phone", body.Query)

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"query":`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), req, &body))
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessThumbnailResizes(t *testing.T) {
	out, contentType, err := ProcessThumbnail(bytes.NewReader(testPNG(t, 200, 100)), ThumbnailOptions{Width: 50, MaxWidth: 1200, Quality: 80})
	require.NoError(t, err)
	require.True(t, IsImage(contentType))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestProcessThumbnailNeverUpscales(t *testing.T) {
	out, _, err := ProcessThumbnail(bytes.NewReader(testPNG(t, 40, 40)), ThumbnailOptions{Width: 400})
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
}

func TestProcessThumbnailCapsWidth(t *testing.T) {
	out, _, err := ProcessThumbnail(bytes.NewReader(testPNG(t, 120, 60)), ThumbnailOptions{MaxWidth: 60})
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)
}

func TestProcessThumbnailRejectsGarbage(t *testing.T) {
	_, _, err := ProcessThumbnail(strings.NewReader("not an image"), ThumbnailOptions{})
	assert.Error(t, err)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/webp"))
	assert.False(t, IsImage("text/html"))
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h truecolor
// pixels, with no image data behind it.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 2, 0, 0, 0)

	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcessThumbnailRejectsOversizedSource(t *testing.T) {
	_, _, err := ProcessThumbnail(bytes.NewReader(pngHeader(50000, 50000)), ThumbnailOptions{Width: 400})
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestProcessThumbnailPixelLimitOption(t *testing.T) {
	src := testPNG(t, 100, 100)

	_, _, err := ProcessThumbnail(bytes.NewReader(src), ThumbnailOptions{MaxPixels: 5000})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, _, err = ProcessThumbnail(bytes.NewReader(src), ThumbnailOptions{MaxPixels: 10000})
	assert.NoError(t, err)
}
