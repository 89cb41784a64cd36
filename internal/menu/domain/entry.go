// Package domain holds the menu entry model, the sync state and the repository ports of the menu cache.
package domain

import (
	"errors"

	"golang.org/x/text/cases"
)

// ErrEntryNotFound is returned when no entry has the requested id.
var ErrEntryNotFound = errors.New("menu entry not found")

// MenuEntry is one orderable item, persisted in menu_items.
type MenuEntry struct {
	// ID is the identifier assigned by the remote menu; never generated locally
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Title       string `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	// Price is display text, see NormalizePrice
	Price    string `gorm:"column:price;type:varchar(64)" json:"price"`
	Image    string `gorm:"column:image;type:text" json:"image"`
	Category string `gorm:"column:category;type:varchar(100)" json:"category"`

	// Case-folded lookup columns, rewritten on every upsert
	TitleKey    string `gorm:"column:title_key;type:varchar(255);index:idx_menu_items_title_key" json:"-"`
	CategoryKey string `gorm:"column:category_key;type:varchar(100);index:idx_menu_items_category_key" json:"-"`
}

func (MenuEntry) TableName() string { return "menu_items" }

// RefreshKeys recomputes the lookup columns from Title and Category.
func (e *MenuEntry) RefreshKeys() {
	e.TitleKey = FoldKey(e.Title)
	e.CategoryKey = FoldKey(e.Category)
}

// FoldKey returns the Unicode case-folded form of s used for case-insensitive matching.
func FoldKey(s string) string {
	// a Caser is stateful, so one per call
	return cases.Fold().String(s)
}

// Filter narrows a listing. Zero fields do not constrain.
type Filter struct {
	// Category matches the whole category, ignoring case
	Category string `json:"category,omitempty"`
	// Search matches a substring of the title, ignoring case
	Search string `json:"search,omitempty"`
}

// IsZero reports whether f matches every entry.
func (f Filter) IsZero() bool { return f.Category == "" && f.Search == "" }
