package attendance

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms_backend/internals/features/school/attendance/model"
)

type HolidaySeed struct {
	Days []int `json:"days"`
}

// SeedHolidaysFromJSON: hanya mengisi kalau baris holiday_settings belum ada
func SeedHolidaysFromJSON(db *gorm.DB, filePath string) error {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("baca %s: %w", filePath, err)
	}
	var seed HolidaySeed
	if err := json.Unmarshal(file, &seed); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	for _, d := range seed.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("hari libur %d di luar 0..6", d)
		}
	}

	row := model.HolidaySettingModel{
		HolidaySettingID:        model.HolidaySettingSingletonID,
		HolidaySettingDays:      datatypes.JSONSlice[int](seed.Days),
		HolidaySettingUpdatedAt: time.Now(),
	}
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "holiday_setting_id"}}, DoNothing: true}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("insert holiday_settings: %w", res.Error)
	}
	log.Printf("✅ Seed holiday_settings: %v (baru=%v)", seed.Days, res.RowsAffected > 0)
	return nil
}
