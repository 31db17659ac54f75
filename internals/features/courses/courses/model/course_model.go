package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseModel: potongan katalog yang dibaca core (fee, aktif, jumlah terdaftar).
type CourseModel struct {
	CourseID             uuid.UUID `gorm:"column:course_id;type:uuid;primaryKey" json:"course_id"`
	CourseName           string    `gorm:"column:course_name;type:varchar(160);not null" json:"course_name"`
	CourseFee            string    `gorm:"column:course_fee;type:varchar(40);not null;default:'0'" json:"course_fee"`
	CourseDurationMonths int       `gorm:"column:course_duration_months;not null;default:1" json:"course_duration_months"`
	CourseIsActive       bool      `gorm:"column:course_is_active;not null;default:true;index" json:"course_is_active"`
	CourseEnrolledCount  int       `gorm:"column:course_enrolled_count;not null;default:0" json:"course_enrolled_count"`
	CourseCreatedAt      time.Time `gorm:"column:course_created_at;not null" json:"course_created_at"`
	CourseUpdatedAt      time.Time `gorm:"column:course_updated_at;not null" json:"course_updated_at"`
}

func (CourseModel) TableName() string { return "courses" }

func (m *CourseModel) BeforeCreate(tx *gorm.DB) error {
	if m.CourseID == uuid.Nil {
		m.CourseID = uuid.New()
	}
	now := time.Now()
	if m.CourseCreatedAt.IsZero() {
		m.CourseCreatedAt = now
	}
	m.CourseUpdatedAt = now
	return nil
}

// FeeAmount: fee katalog (teks) → integer positif. ok=false kalau tidak bisa dipakai.
// Pemisah ribuan ("3.000", "3,000"), desimal ("1500.00", dibulatkan) dan prefix "Rp" ditoleransi.
func (m CourseModel) FeeAmount() (int64, bool) {
	return ParseFee(m.CourseFee)
}

func ParseFee(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	// "." / "," diikuti tepat 3 digit = pemisah ribuan; grup terakhir 1-2 digit = desimal
	parts := splitFee(s)
	frac := ""
	if n := len(parts); n > 1 && len(parts[n-1]) != 3 {
		frac = parts[n-1]
		parts = parts[:n-1]
		if len(frac) > 2 || !allDigits(frac) {
			return 0, false
		}
	}
	for i, p := range parts {
		if !allDigits(p) || (i > 0 && len(p) != 3) {
			return 0, false
		}
	}

	n, err := strconv.ParseInt(strings.Join(parts, ""), 10, 64)
	if err != nil {
		return 0, false
	}
	if frac != "" {
		cents, _ := strconv.Atoi(frac)
		if len(frac) == 1 {
			cents *= 10
		}
		if cents >= 50 {
			n++
		}
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

func splitFee(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
