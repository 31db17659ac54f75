package model

import "time"

// CounterModel: counter bernama, satu baris per nama (PK).
type CounterModel struct {
	CounterName      string    `gorm:"column:counter_name;type:varchar(60);primaryKey" json:"counter_name"`
	CounterValue     int64     `gorm:"column:counter_value;not null;default:0" json:"counter_value"`
	CounterUpdatedAt time.Time `gorm:"column:counter_updated_at;autoUpdateTime" json:"counter_updated_at"`
}

func (CounterModel) TableName() string { return "counters" }
