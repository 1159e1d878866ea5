package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Profile представляє учасника розмови. Заповнюється застосунком
// під час онбордингу; цей сервіс лише читає дані.
type Profile struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string `gorm:"type:text" json:"full_name"`
	// Interests зберігає теги інтересів учасника.
	Interests   pq.StringArray `gorm:"type:text[]" json:"interests"`
	RatingScore int            `json:"rating_score"`
}

// BeforeCreate — GORM hook. Генерує UUID, якщо ID ще не встановлено.
func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
