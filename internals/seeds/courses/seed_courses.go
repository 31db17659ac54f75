package courses

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms_backend/internals/features/courses/courses/model"
)

type CourseSeed struct {
	CourseID       uuid.UUID `json:"course_id"`
	Name           string    `json:"name"`
	Fee            string    `json:"fee"` // teks bebas, mis. "Rp 350.000"
	DurationMonths int       `json:"duration_months"`
	IsActive       *bool     `json:"is_active"`
}

// SeedCoursesFromJSON: course_id yang sudah ada dilewati
func SeedCoursesFromJSON(db *gorm.DB, filePath string) error {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("baca %s: %w", filePath, err)
	}
	var seeds []CourseSeed
	if err := json.Unmarshal(file, &seeds); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	if len(seeds) == 0 {
		return nil
	}

	rows := make([]model.CourseModel, 0, len(seeds))
	for _, s := range seeds {
		active := true
		if s.IsActive != nil {
			active = *s.IsActive
		}
		months := s.DurationMonths
		if months <= 0 {
			months = 1
		}
		rows = append(rows, model.CourseModel{
			CourseID:             s.CourseID,
			CourseName:           s.Name,
			CourseFee:            s.Fee,
			CourseDurationMonths: months,
			CourseIsActive:       active,
		})
	}
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "course_id"}}, DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("insert courses: %w", res.Error)
	}
	log.Printf("✅ Seed courses: %d baru dari %d", res.RowsAffected, len(seeds))
	return nil
}
