package models

import (
	"time"
)

// Entity is the latest revision of an entity. Statements hold the JSON
// encoded statement list.
type Entity struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	Type       string    `json:"type" gorm:"type:text;index"`
	Revision   int64     `json:"revision" gorm:"not null"`
	Statements string    `json:"statements" gorm:"type:jsonb;not null"`
	MDate      time.Time `json:"mdate" gorm:"autoUpdateTime"`
}
