package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const RollNoWidth = 4

// AssignNext: increment-and-fetch atomik dalam satu statement.
// Baris counter dibuat otomatis saat pertama dipakai; row lock Postgres
// menserialkan pemanggil paralel (lintas instance proses).
func AssignNext(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("counter name kosong")
	}

	var value int64
	err := db.WithContext(ctx).Raw(`
		INSERT INTO counters (counter_name, counter_value, counter_updated_at)
		VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (counter_name)
		DO UPDATE SET counter_value = counters.counter_value + 1,
		              counter_updated_at = CURRENT_TIMESTAMP
		RETURNING counter_value`, name).
		Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("assign-next %s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("assign-next %s: counter tidak mengembalikan nilai", name)
	}
	return value, nil
}

// FormatRollNo: 7 → "0007" (lebih dari 4 digit tidak dipotong)
func FormatRollNo(v int64) string {
	return fmt.Sprintf("%0*d", RollNoWidth, v)
}

// AssignNextRollNo = AssignNext + FormatRollNo
func AssignNextRollNo(ctx context.Context, db *gorm.DB, name string) (string, error) {
	v, err := AssignNext(ctx, db, name)
	if err != nil {
		return "", err
	}
	return FormatRollNo(v), nil
}
