package models

import "time"

// Company is an optional grouping entity for quotes. Companies are only ever
// created; there is no update or delete lifecycle.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
