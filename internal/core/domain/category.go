package domain

// Category is a top-level taxonomy node. The taxonomy is read-only
// context for sync and categorization; neither mutates it.
type Category struct {
	CategoryID    string        `json:"categoryID"` // Primary Key (UUID)
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory belongs to exactly one Category.
type Subcategory struct {
	SubcategoryID string `json:"subcategoryID"` // Primary Key (UUID)
	CategoryID    string `json:"categoryID"`    // FK -> Category.categoryID
	Name          string `json:"name"`
}

// Tag is a free-form label attachable to transactions.
type Tag struct {
	TagID string `json:"tagID"` // Primary Key (UUID)
	Name  string `json:"name"`
	AuditFields
}

// ReviewTagName is attached to transactions categorized by the model so
// the user can audit AI-made decisions. Created on first use.
const ReviewTagName = "AI Review"
