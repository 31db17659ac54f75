package seeds

import (
	"log"
	"path/filepath"

	"gorm.io/gorm"

	"lms_backend/internals/seeds/attendance"
	"lms_backend/internals/seeds/courses"
	"lms_backend/internals/seeds/students"
)

// RunAllSeeds: idempotent, aman dijalankan tiap start (SEED_ON_START=true)
func RunAllSeeds(db *gorm.DB, dir string) {
	if dir == "" {
		dir = "internals/seeds/data"
	}

	//* Master
	run("students", students.SeedStudentsFromJSON(db, filepath.Join(dir, "data_students.json")))
	run("courses", courses.SeedCoursesFromJSON(db, filepath.Join(dir, "data_courses.json")))

	//* Absensi
	run("holidays", attendance.SeedHolidaysFromJSON(db, filepath.Join(dir, "data_holidays.json")))
}

func run(name string, err error) {
	if err != nil {
		log.Printf("❌ Seed %s gagal: %v", name, err)
	}
}
