// internal/models/common.go
package models

import (
	"time"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enums
type OptionShape string

const (
	OptionShapeSquare OptionShape = "square"
	OptionShapeCircle OptionShape = "circle"
)

func (s OptionShape) Valid() bool {
	return s == OptionShapeSquare || s == OptionShapeCircle
}

type OptionType string

const (
	OptionTypeText  OptionType = "text"
	OptionTypeColor OptionType = "color"
)

func (t OptionType) Valid() bool {
	return t == OptionTypeText || t == OptionTypeColor
}
