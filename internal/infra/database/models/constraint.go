package models

import (
	"time"
)

type Constraint struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	PropertyID string    `json:"propertyID" gorm:"type:text;not null;index:idx_constraint_property"`
	Position   int       `json:"position" gorm:"not null;index:idx_constraint_property"`
	TypeID     string    `json:"typeID" gorm:"type:text;not null"`
	Parameters string    `json:"parameters" gorm:"type:jsonb;not null"`
	MDate      time.Time `json:"mdate" gorm:"autoUpdateTime"`
}
