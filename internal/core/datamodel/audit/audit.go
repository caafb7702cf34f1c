package audit

import "time"

type SystemLog struct {
	ID        int64     `gorm:"primaryKey"`
	Action    string    `gorm:"column:action;not null"`
	Detail    string    `gorm:"column:detail"`
	Actor     string    `gorm:"column:actor;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (SystemLog) TableName() string {
	return "system_log"
}
