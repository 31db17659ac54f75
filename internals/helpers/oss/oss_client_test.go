package osshelper

import (
	"image"
	"image/color"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeyFromPublicURL(t *testing.T) {
	key, err := ExtractKeyFromPublicURL("https://lms.oss-ap-southeast-5.aliyuncs.com/receipts/a/b.webp", "")
	require.NoError(t, err)
	assert.Equal(t, "receipts/a/b.webp", key)

	key, err = ExtractKeyFromPublicURL("https://cdn.example.com/receipts/x.pdf", "https://cdn.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "receipts/x.pdf", key)

	key, err = ExtractKeyFromPublicURL("receipts/raw-key.png", "")
	require.NoError(t, err)
	assert.Equal(t, "receipts/raw-key.png", key)

	_, err = ExtractKeyFromPublicURL("  ", "")
	assert.Error(t, err)
}

func TestBuildObjectKey(t *testing.T) {
	s := &OSSService{Prefix: "receipts"}
	key := s.buildObjectKey("fees/abc", "Bukti Transfer.JPG")
	assert.True(t, strings.HasPrefix(key, "receipts/fees/abc/bukti-transfer_"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
}

func TestDownscale_KeepsAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		src.Set(x, 10, color.RGBA{R: 200, A: 255})
	}

	out := Downscale(src, 100, 100)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())

	same := Downscale(src, 1000, 1000)
	assert.Equal(t, src.Bounds(), same.Bounds())
}

func TestIsImageUpload(t *testing.T) {
	img := &multipart.FileHeader{Filename: "slip.bin", Header: textproto.MIMEHeader{"Content-Type": {"image/png"}}}
	pdf := &multipart.FileHeader{Filename: "slip.pdf", Header: textproto.MIMEHeader{"Content-Type": {"application/pdf"}}}
	byExt := &multipart.FileHeader{Filename: "SLIP.JPEG", Header: textproto.MIMEHeader{}}

	assert.True(t, IsImageUpload(img))
	assert.False(t, IsImageUpload(pdf))
	assert.True(t, IsImageUpload(byExt))
	assert.False(t, IsImageUpload(nil))
}
