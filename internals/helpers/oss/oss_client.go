package osshelper

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/configs"
)

// batas ukuran bukti pembayaran
const maxUploadSize = int64(5 * 1024 * 1024)

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	PublicBase string
	Prefix     string // optional: "receipts"
}

func NewOSSServiceFromEnv(prefix string) (*OSSService, error) {
	endpoint := configs.GetEnv("ALI_OSS_ENDPOINT")
	ak := configs.GetEnv("ALI_OSS_ACCESS_KEY")
	sk := configs.GetEnv("ALI_OSS_SECRET_KEY")
	sts := configs.GetEnv("ALI_OSS_SECURITY_TOKEN")
	bucketName := configs.GetEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	log.Printf("[OSS] ✅ bucket=%s endpoint=%s prefix=%q", bucketName, endpoint, prefix)
	return &OSSService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		PublicBase: configs.GetEnv("ALI_OSS_PUBLIC_BASE"),
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

/* =======================================================================
   Upload
======================================================================= */

// UploadAsWebP: recompress gambar ke webp lalu upload; return public URL
func (s *OSSService) UploadAsWebP(ctx context.Context, fh *multipart.FileHeader, dir string, opt WebPOptions) (string, error) {
	src, err := openLimited(fh)
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := ConvertToWebP(src, fh.Filename, opt)
	if err != nil {
		if errors.Is(err, errUnsupportedFormat) {
			return "", fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported image format (pakai jpg/png/webp)")
		}
		return "", err
	}

	base := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	key := s.buildObjectKey(dir, base+".webp")
	if err := s.put(ctx, key, bytes.NewReader(data), "image/webp"); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

// UploadRaw: upload apa adanya (mis. PDF bukti transfer)
func (s *OSSService) UploadRaw(ctx context.Context, fh *multipart.FileHeader, dir string) (string, error) {
	src, err := openLimited(fh)
	if err != nil {
		return "", err
	}
	defer src.Close()

	all, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	key := s.buildObjectKey(dir, fh.Filename)
	if err := s.put(ctx, key, bytes.NewReader(all), detectContentType(all, fh.Filename)); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

func (s *OSSService) put(ctx context.Context, key string, r io.Reader, contentType string) error {
	return s.Bucket.PutObject(key, r,
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("private, max-age=86400"),
	)
}

func openLimited(fh *multipart.FileHeader) (multipart.File, error) {
	if fh == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "File tidak ditemukan")
	}
	if fh.Size > maxUploadSize {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("file terlalu besar (max %d bytes)", maxUploadSize))
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return src, nil
}

/* =======================================================================
   Delete
======================================================================= */

func (s *OSSService) DeleteObject(ctx context.Context, key string) error {
	if err := s.Bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *OSSService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	key, err := ExtractKeyFromPublicURL(publicURL, s.PublicBase)
	if err != nil {
		return fmt.Errorf("extract key: %w", err)
	}
	return s.DeleteObject(ctx, key)
}

/* =======================================================================
   Public URL & Key utils
======================================================================= */

func (s *OSSService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if s.PublicBase != "" {
		return strings.TrimRight(s.PublicBase, "/") + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

// ExtractKeyFromPublicURL: URL publik (atau key mentah) → object key
func ExtractKeyFromPublicURL(publicURL, publicBase string) (string, error) {
	u := strings.TrimSpace(publicURL)
	if u == "" {
		return "", fmt.Errorf("empty url")
	}
	if base := strings.TrimRight(strings.TrimSpace(publicBase), "/"); base != "" && strings.HasPrefix(u, base+"/") {
		return strings.TrimPrefix(u, base+"/"), nil
	}
	i := strings.Index(u, "://")
	if i < 0 {
		// sudah berupa key
		return strings.TrimPrefix(u, "/"), nil
	}
	u = u[i+3:]
	if j := strings.Index(u, "?"); j >= 0 {
		u = u[:j]
	}
	if j := strings.Index(u, "/"); j >= 0 && j+1 < len(u) {
		return u[j+1:], nil
	}
	return "", fmt.Errorf("cannot extract key from url: %s", publicURL)
}

func (s *OSSService) buildObjectKey(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	name := fmt.Sprintf("%s_%s_%s%s", slugify(base), time.Now().Format("20060102_150405"), randHex(3), ext)

	parts := make([]string, 0, 3)
	for _, p := range []string{s.Prefix, strings.Trim(dir, "/"), name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "file"
	}
	return s
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func detectContentType(head []byte, filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}

func isNotFound(err error) bool {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == 404
	}
	return false
}
