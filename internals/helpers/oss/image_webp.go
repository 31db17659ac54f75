package osshelper

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"lms_backend/internals/configs"
)

/* =======================================================================
   Konfigurasi WebP (ENV-Driven)
======================================================================= */

type WebPOptions struct {
	MaxW     int     // batas lebar (resize keep-aspect)
	MaxH     int     // batas tinggi
	Quality  float32 // quality awal
	TargetKB int     // 0 = non-aktif (pakai Quality saja)
	MinQ     float32 // batas bawah quality saat mengejar TargetKB
}

func DefaultWebPOptions() WebPOptions {
	return WebPOptions{
		MaxW:     configs.GetEnvInt("IMAGE_WEBP_MAX_W", 1600),
		MaxH:     configs.GetEnvInt("IMAGE_WEBP_MAX_H", 1600),
		Quality:  float32(configs.GetEnvInt("IMAGE_WEBP_QUALITY", 80)),
		TargetKB: configs.GetEnvInt("IMAGE_WEBP_TARGET_KB", 300),
		MinQ:     float32(configs.GetEnvInt("IMAGE_WEBP_MIN_Q", 45)),
	}
}

var errUnsupportedFormat = fmt.Errorf("format tidak didukung")

/* =======================================================================
   Decode (jpeg/png/webp) dengan sniff MIME, fallback ekstensi
======================================================================= */

func decodeImage(all []byte, filename string) (image.Image, error) {
	if len(all) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	kind := http.DetectContentType(head)
	if !strings.HasPrefix(kind, "image/") {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	}

	r := bytes.NewReader(all)
	switch {
	case strings.Contains(kind, "jpeg"), kind == "jpg":
		return jpeg.Decode(r)
	case strings.Contains(kind, "png"):
		return png.Decode(r)
	case strings.Contains(kind, "webp"):
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, kind)
	}
}

// Downscale keep-aspect (Lanczos); gambar kecil dikembalikan apa adanya
func Downscale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	if (maxW <= 0 || b.Dx() <= maxW) && (maxH <= 0 || b.Dy() <= maxH) {
		return src
	}
	if maxW <= 0 {
		maxW = b.Dx()
	}
	if maxH <= 0 {
		maxH = b.Dy()
	}
	return imaging.Fit(src, maxW, maxH, imaging.Lanczos)
}

// encodeToWebP: satu kali encode, lalu turunkan quality bertahap kalau masih di atas TargetKB
func encodeToWebP(img image.Image, opt WebPOptions) ([]byte, error) {
	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	minQ := opt.MinQ
	if minQ <= 0 || minQ > q {
		minQ = q
	}

	var out []byte
	for {
		buf := new(bytes.Buffer)
		if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
			return nil, err
		}
		out = buf.Bytes()
		if opt.TargetKB <= 0 || len(out) <= opt.TargetKB*1024 || q <= minQ {
			return out, nil
		}
		q -= 10
		if q < minQ {
			q = minQ
		}
	}
}

// ConvertToWebP: baca → decode → resize → encode webp
func ConvertToWebP(r io.Reader, filename string, opt WebPOptions) ([]byte, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(all, filename)
	if err != nil {
		return nil, err
	}
	return encodeToWebP(Downscale(img, opt.MaxW, opt.MaxH), opt)
}
