// internal/models/product.go
package models

// Product is the aggregate root. Boolean columns carry no gorm default so that
// an explicit false is written as-is; defaults are applied by the writer.
type Product struct {
	BaseModel
	Enabled           bool     `json:"enabled" gorm:"not null;index:idx_products_enabled_name,priority:1"`
	Name              string   `json:"name" gorm:"size:255;not null;index:idx_products_enabled_name,priority:2"`
	Slug              string   `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	UseInMenu         bool     `json:"use_in_menu" gorm:"not null"`
	Stock             int      `json:"stock" gorm:"not null"`
	Description       string   `json:"description" gorm:"type:text"`
	Price             float64  `json:"price" gorm:"not null;index"`
	PriceWithDiscount *float64 `json:"price_with_discount"`

	// Relationships
	Images     []ProductImage    `json:"images,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Options    []ProductOption   `json:"options,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Categories []ProductCategory `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

type ProductImage struct {
	BaseModel
	ProductID uint   `json:"product_id" gorm:"not null;index"`
	Type      string `json:"type" gorm:"size:100;not null"`
	Content   string `json:"content" gorm:"type:text;not null"`
}

type ProductOption struct {
	BaseModel
	ProductID uint        `json:"product_id" gorm:"not null;index"`
	Title     string      `json:"title" gorm:"size:255;not null"`
	Shape     OptionShape `json:"shape" gorm:"type:varchar(10);not null"`
	Radius    int         `json:"radius" gorm:"not null"`
	Type      OptionType  `json:"type" gorm:"type:varchar(10);not null"`

	Values []ProductOptionValue `json:"values,omitempty" gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE"`
}

type ProductOptionValue struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	OptionID uint   `json:"option_id" gorm:"not null;index:idx_option_values_option_value,priority:1"`
	Value    string `json:"value" gorm:"size:255;not null;index:idx_option_values_option_value,priority:2"`
}

// ProductCategory is the explicit many-to-many join between products and
// categories. The pair is the identity.
type ProductCategory struct {
	ProductID  uint     `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint     `json:"category_id" gorm:"primaryKey;autoIncrement:false;index"`
	Category   Category `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (ProductCategory) TableName() string {
	return "product_categories"
}
