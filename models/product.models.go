package models

import "time"

// Product categories offered by the farm
const (
	CategoryChicken = "chicken"
	CategoryEggs    = "eggs"
	CategoryPlants  = "plants"
)

// Product represents an item in the catalog
type Product struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name" validate:"min=2"`
	Description string    `bson:"description" json:"description" validate:"min=5"`
	Price       float64   `bson:"price" json:"price" validate:"gte=0"`
	Unit        string    `bson:"unit" json:"unit" validate:"min=1"`
	Image       string    `bson:"image" json:"image" validate:"min=1"`
	Category    string    `bson:"category" json:"category" validate:"oneof=chicken eggs plants"`
	InStock     bool      `bson:"in_stock" json:"in_stock"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// StockUpdate carries the fields an admin may change on an existing product
type StockUpdate struct {
	Price   float64 `json:"price" validate:"gte=0"`
	InStock bool    `json:"in_stock"`
}
