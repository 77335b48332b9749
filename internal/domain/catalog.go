package domain

import "time"

// Category represents a product category. Categories are created by admins
// and have no update or delete operation.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Product represents a product in the catalog
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	CategoryID  int64     `json:"category_id" db:"category_id"`
	Inventory   int       `json:"inventory" db:"inventory"`
	Featured    bool      `json:"featured" db:"featured"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductPatch describes a partial product update. Nil fields are left
// untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	ImageURL    *string
	CategoryID  *int64
	Inventory   *int
	Featured    *bool
}

// ProductFilter narrows a product listing. All fields are optional and
// combined with logical AND. Search is a case-insensitive substring match
// over name and description.
type ProductFilter struct {
	CategoryID *int64
	Search     string
	Featured   *bool
}
