package codec

import (
	"errors"
	"testing"
)

const sampleMenu = `{
  "menu": [
    {
      "id": 1,
      "title": "Greek Salad",
      "description": "The famous greek salad of crispy lettuce, peppers, olives, our Chicago.",
      "price": "10",
      "image": "https://example.com/greekSalad.jpg",
      "category": "starters"
    },
    {
      "id": 2,
      "title": "Lemon Desert",
      "description": "Traditional homemade Italian Lemon Ricotta Cake.",
      "price": "10",
      "image": "https://example.com/lemonDessert.jpg",
      "category": "desserts",
      "calories": 420
    }
  ],
  "version": 3
}`

func TestDecodeMenu(t *testing.T) {
	entries, err := DecodeMenu([]byte(sampleMenu))
	if err != nil {
		t.Fatalf("DecodeMenu: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	first := entries[0]
	if first.ID != 1 || first.Title != "Greek Salad" || first.Price != "10" || first.Category != "starters" {
		t.Errorf("entries[0] = %+v", first)
	}
	if entries[1].Image != "https://example.com/lemonDessert.jpg" {
		t.Errorf("entries[1].Image = %q", entries[1].Image)
	}
}

func TestDecodeMenuEmptyList(t *testing.T) {
	entries, err := DecodeMenu([]byte(`{"menu": []}`))
	if err != nil {
		t.Fatalf("DecodeMenu: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len = %d, want 0", len(entries))
	}
}

func TestDecodeMenuRejects(t *testing.T) {
	const item = `"title":"Soup","description":"d","price":"1","image":"i","category":"c"`
	tests := []struct {
		name    string
		payload string
	}{
		{"empty payload", ``},
		{"truncated", sampleMenu[:len(sampleMenu)/2]},
		{"not an object", `[1,2,3]`},
		{"null document", `null`},
		{"missing menu", `{"items": []}`},
		{"null menu", `{"menu": null}`},
		{"menu not a list", `{"menu": {}}`},
		{"null item", `{"menu": [null]}`},
		{"missing id", `{"menu": [{` + item + `}]}`},
		{"missing title", `{"menu": [{"id":1,"description":"d","price":"1","image":"i","category":"c"}]}`},
		{"null category", `{"menu": [{"id":1,"title":"Soup","description":"d","price":"1","image":"i","category":null}]}`},
		{"string id", `{"menu": [{"id":"1",` + item + `}]}`},
		{"fractional id", `{"menu": [{"id":1.5,` + item + `}]}`},
		{"numeric price", `{"menu": [{"id":1,"title":"Soup","description":"d","price":1.5,"image":"i","category":"c"}]}`},
		{"trailing garbage", `{"menu": []} x`},
		{"upper-case menu key", `{"MENU": [{"id":1,` + item + `}]}`},
		{"capitalised menu key", `{"Menu": []}`},
		{"upper-case id", `{"menu": [{"ID":1,` + item + `}]}`},
		{"capitalised fields", `{"menu": [{"ID":1,"Title":"Soup","DESCRIPTION":"d","Price":"1","Image":"i","Category":"c"}]}`},
		{"capitalised title only", `{"menu": [{"id":1,"Title":"Soup","description":"d","price":"1","image":"i","category":"c"}]}`},
		{"whitespace payload", "  \n\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := DecodeMenu([]byte(tt.payload))
			if !errors.Is(err, ErrMalformedMenu) {
				t.Fatalf("err = %v, want ErrMalformedMenu", err)
			}
			if entries != nil {
				t.Errorf("entries = %v, want nil", entries)
			}
		})
	}
}

func TestJSONDecoder(t *testing.T) {
	entries, err := JSONDecoder{}.Decode([]byte(sampleMenu))
	if err != nil || len(entries) != 2 {
		t.Fatalf("Decode = %d entries, %v", len(entries), err)
	}
}
