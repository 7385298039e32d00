package core

import "testing"

func TestMatchEntry_NameOnly(t *testing.T) {
	tomatoes := []Product{
		{Name: "Tomate", Aisle: "Verduras"},
		{Name: "Tomate frito", Aisle: "Conservas"},
		{Name: "Tomate cherry", Aisle: "Verduras"},
	}

	tests := []struct {
		name     string
		products []Product
		entry    string
		want     int
	}{
		{"exact wins outright", tomatoes, "Tomate", 0},
		{"exact ignores case", tomatoes, "TOMATE FRITO", 1},
		{"typo picks closest length", tomatoes, "Tomat", 0},
		{"entry contains product name", tomatoes, "Tomate cherry pera", 2},
		{"closest length among several", []Product{{Name: "Pan blanco"}, {Name: "Pan negro"}}, "Pan", 1},
		{"tie goes to first", []Product{{Name: "Leche A"}, {Name: "Leche B"}}, "Leche", 0},
		{"no candidate", tomatoes, "Lechuga", -1},
		{"blank entry", tomatoes, "  ", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchEntry(tt.products, tt.entry, "", false); got != tt.want {
				t.Errorf("matchEntry(%q) = %d, want %d", tt.entry, got, tt.want)
			}
		})
	}
}

func TestMatchEntry_WithAisle(t *testing.T) {
	products := []Product{
		{Name: "Leche", Aisle: "1 Lácteos"},
		{Name: "Leche", Aisle: "9 Ofertas"},
		{Name: "Leche de avena", Aisle: "1 Lácteos"},
	}

	tests := []struct {
		name  string
		entry string
		aisle string
		want  int
	}{
		{"name and aisle", "leche", "9 ofertas", 1},
		{"first aisle", "Leche", "1 Lácteos", 0},
		{"no fuzzy fallback under an aisle", "Lech", "1 Lácteos", -1},
		{"wrong aisle", "Leche", "3 Bebidas", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchEntry(products, tt.entry, tt.aisle, true); got != tt.want {
				t.Errorf("matchEntry(%q, %q) = %d, want %d", tt.entry, tt.aisle, got, tt.want)
			}
		})
	}
}
