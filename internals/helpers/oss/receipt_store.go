package osshelper

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ReceiptStore: penyimpanan objek bukti pembayaran
type ReceiptStore interface {
	UploadReceipt(ctx context.Context, fh *multipart.FileHeader, dir string) (ref string, err error)
	DeleteReceipt(ctx context.Context, ref string) error
}

// OSSReceiptStore: gambar → webp, selain itu (pdf) diupload apa adanya
type OSSReceiptStore struct {
	Svc  *OSSService
	WebP WebPOptions
}

func NewOSSReceiptStoreFromEnv() (*OSSReceiptStore, error) {
	svc, err := NewOSSServiceFromEnv("receipts")
	if err != nil {
		return nil, err
	}
	return &OSSReceiptStore{Svc: svc, WebP: DefaultWebPOptions()}, nil
}

func (s *OSSReceiptStore) UploadReceipt(ctx context.Context, fh *multipart.FileHeader, dir string) (string, error) {
	if IsImageUpload(fh) {
		return s.Svc.UploadAsWebP(ctx, fh, dir, s.WebP)
	}
	return s.Svc.UploadRaw(ctx, fh, dir)
}

func (s *OSSReceiptStore) DeleteReceipt(ctx context.Context, ref string) error {
	return s.Svc.DeleteByPublicURL(ctx, ref)
}

func IsImageUpload(fh *multipart.FileHeader) bool {
	if fh == nil {
		return false
	}
	ct := strings.ToLower(fh.Header.Get(fiber.HeaderContentType))
	if strings.HasPrefix(ct, "image/") {
		return true
	}
	name := strings.ToLower(fh.Filename)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// IsMultipart menilai request multipart/form-data
func IsMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	return strings.HasPrefix(ct, "multipart/form-data")
}

var defaultReceiptFields = []string{"receipt", "file", "image", "slip"}

// GetReceiptFile mencari file dari beberapa kemungkinan field form.
// Tidak ada file → (nil, nil) supaya controller bisa fallback ke receipt_ref JSON.
func GetReceiptFile(c *fiber.Ctx, fieldNames ...string) *multipart.FileHeader {
	if !IsMultipart(c) {
		return nil
	}
	names := fieldNames
	if len(names) == 0 {
		names = defaultReceiptFields
	}
	for _, fn := range names {
		if fh, err := c.FormFile(fn); err == nil && fh != nil {
			return fh
		}
	}
	return nil
}
