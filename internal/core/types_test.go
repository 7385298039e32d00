package core

import "testing"

func TestProduct_SetQuantity(t *testing.T) {
	tests := []struct {
		name        string
		in          int
		wantChecked bool
		wantQty     int
	}{
		{"clamps high", 999, true, MaxQuantity},
		{"upper bound", MaxQuantity, true, MaxQuantity},
		{"positive", 3, true, 3},
		{"zero unchecks", 0, false, 0},
		{"negative unchecks", -5, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Name: "Leche", Checked: true, Quantity: 2}
			p.SetQuantity(tt.in)
			if p.Checked != tt.wantChecked || p.Quantity != tt.wantQty {
				t.Errorf("SetQuantity(%d) = (checked %v, qty %d), want (%v, %d)",
					tt.in, p.Checked, p.Quantity, tt.wantChecked, tt.wantQty)
			}
		})
	}
}

func TestProduct_Toggle(t *testing.T) {
	p := Product{Name: "Pan"}

	p.Toggle()
	if !p.Checked || p.Quantity != 1 {
		t.Errorf("after first toggle = %+v, want checked with quantity 1", p)
	}

	p.SetQuantity(6)
	p.Toggle()
	if p.Checked || p.Quantity != 0 {
		t.Errorf("after second toggle = %+v, want unchecked with quantity 0", p)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 7 ", 7},
		{"2.9", 2},
		{"4 unidades", 4},
		{"abc", 0},
		{"", 0},
		{"-5", 0},
		{"+2", 2},
		{"999", MaxQuantity},
		{"99999999999999999999", MaxQuantity},
	}

	for _, tt := range tests {
		if got := ParseQuantity(tt.in); got != tt.want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIdentity(t *testing.T) {
	admin := Identity{Name: "admin", Caps: AllCapabilities}
	if !admin.Can(CapEditMaster) || !admin.Can(CapManageUsers) {
		t.Error("admin should hold every capability")
	}
	if (Identity{Name: "ana"}).Can(CapEditMaster) {
		t.Error("plain identity should not hold CapEditMaster")
	}

	tests := []struct {
		id   Identity
		want string
	}{
		{Identity{Name: "ana"}, "products_ana"},
		{Anonymous(), "products_anonymous"},
		{Identity{}, "products_anonymous"},
	}
	for _, tt := range tests {
		if got := tt.id.SnapshotKey(); got != tt.want {
			t.Errorf("SnapshotKey(%q) = %q, want %q", tt.id.Name, got, tt.want)
		}
	}
}

func TestEnsureIDs_Deterministic(t *testing.T) {
	a := []Product{{Name: "Leche", Aisle: "1"}, {ID: "keep", Name: "Pan"}}
	b := []Product{{Name: "Leche", Aisle: "1"}, {ID: "keep", Name: "Pan"}}

	ensureIDs(a)
	ensureIDs(b)

	if a[0].ID == "" || a[0].ID != b[0].ID {
		t.Errorf("legacy IDs differ across loads: %q vs %q", a[0].ID, b[0].ID)
	}
	if a[1].ID != "keep" {
		t.Errorf("existing ID overwritten: %q", a[1].ID)
	}
}

func TestFindProduct(t *testing.T) {
	products := []Product{{ID: "1", Name: "Leche"}, {ID: "2", Name: "1"}, {ID: "3", Name: "leche"}}

	if got := findProduct(products, "1"); got != 0 {
		t.Errorf("findProduct by ID = %d, want 0", got)
	}
	if got := findProduct(products, "Leche"); got != 0 {
		t.Errorf("findProduct by name = %d, want 0", got)
	}
	if got := findProduct(products, "leche"); got != 2 {
		t.Errorf("exact name should win over a case-insensitive match, got %d", got)
	}
	if got := findProduct(products, "LECHE"); got != 0 {
		t.Errorf("findProduct case-insensitive = %d, want 0", got)
	}
	if got := findProduct(products, "Agua"); got != -1 {
		t.Errorf("findProduct missing = %d, want -1", got)
	}
}
