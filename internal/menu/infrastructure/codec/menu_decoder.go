// Package codec decodes the remote menu document.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/wyfcoding/littlelemon/internal/menu/domain"
)

// ErrMalformedMenu wraps every decode failure.
var ErrMalformedMenu = errors.New("malformed menu document")

// Keys match exactly: "Menu" or "ID" do not satisfy "menu" or "id".
var strictJSON = jsoniter.Config{CaseSensitive: true}.Froze()

type menuDocument struct {
	Menu *[]menuItem `json:"menu"`
}

// Pointer fields tell a missing or null field apart from an empty string.
type menuItem struct {
	ID          *int64  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Image       *string `json:"image"`
	Category    *string `json:"category"`
}

// DecodeMenu parses {"menu": [...]} with case-sensitive keys. Unknown fields are
// ignored; a missing field, a null or a wrongly typed value rejects the whole document.
func DecodeMenu(payload []byte) ([]domain.MenuEntry, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedMenu)
	}
	var doc menuDocument
	if err := strictJSON.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMenu, err)
	}
	if doc.Menu == nil {
		return nil, fmt.Errorf("%w: missing menu", ErrMalformedMenu)
	}

	entries := make([]domain.MenuEntry, 0, len(*doc.Menu))
	for i, item := range *doc.Menu {
		entry, err := item.toEntry()
		if err != nil {
			return nil, fmt.Errorf("%w: menu[%d]: %v", ErrMalformedMenu, i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (it menuItem) toEntry() (domain.MenuEntry, error) {
	if it.ID == nil {
		return domain.MenuEntry{}, errors.New("missing id")
	}
	fields := []struct {
		name  string
		value *string
	}{
		{"title", it.Title},
		{"description", it.Description},
		{"price", it.Price},
		{"image", it.Image},
		{"category", it.Category},
	}
	for _, f := range fields {
		if f.value == nil {
			return domain.MenuEntry{}, fmt.Errorf("missing %s", f.name)
		}
	}
	return domain.MenuEntry{
		ID:          *it.ID,
		Title:       *it.Title,
		Description: *it.Description,
		Price:       *it.Price,
		Image:       *it.Image,
		Category:    *it.Category,
	}, nil
}

// JSONDecoder adapts DecodeMenu to domain.MenuDecoder.
type JSONDecoder struct{}

func (JSONDecoder) Decode(payload []byte) ([]domain.MenuEntry, error) {
	return DecodeMenu(payload)
}
