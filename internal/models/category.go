// internal/models/category.go
package models

type Category struct {
	BaseModel
	Name      string `json:"name" gorm:"size:255;not null;index"`
	Slug      string `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	UseInMenu bool   `json:"use_in_menu" gorm:"not null;index"`
}
