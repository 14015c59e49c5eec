package models

// Game represents a game offered in the store.
// The ID is assigned by the database on insert and never changes afterwards.
type Game struct {
	ID                uint    `gorm:"primaryKey"`
	Name              string  `gorm:"size:255;not null"`
	Description       string  `gorm:"size:255;not null"`
	Price             float64 `gorm:"not null"`
	InventoryQuantity *int
}
