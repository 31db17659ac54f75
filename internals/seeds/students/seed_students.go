package students

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms_backend/internals/features/users/students/model"
)

type StudentSeed struct {
	StudentID uuid.UUID `json:"student_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
}

// SeedStudentsFromJSON: student_id yang sudah ada dilewati
func SeedStudentsFromJSON(db *gorm.DB, filePath string) error {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("baca %s: %w", filePath, err)
	}
	var seeds []StudentSeed
	if err := json.Unmarshal(file, &seeds); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	if len(seeds) == 0 {
		return nil
	}

	rows := make([]model.StudentModel, 0, len(seeds))
	for _, s := range seeds {
		rows = append(rows, model.StudentModel{
			StudentID:    s.StudentID,
			StudentName:  s.Name,
			StudentEmail: s.Email,
			StudentPhone: s.Phone,
		})
	}
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "student_id"}}, DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("insert students: %w", res.Error)
	}
	log.Printf("✅ Seed students: %d baru dari %d", res.RowsAffected, len(seeds))
	return nil
}
