package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxQuantity is the largest quantity a product can be marked with.
const MaxQuantity = 25

// DefaultAisle labels products whose source row had no usable aisle.
const DefaultAisle = "Unassigned"

// Storage keys.
const (
	MasterKey         = "master_products_list"
	UsersKey          = "registered_users"
	SnapshotKeyPrefix = "products_"
	AnonymousName     = "anonymous"
)

var (
	ErrForbidden      = errors.New("forbidden: missing capability")
	ErrInvalidProduct = errors.New("invalid product: name and aisle are required")
	ErrUnknownUser    = errors.New("unknown user: not registered")
)

// Product is one catalog entry together with the selection state of the
// list it belongs to. Quantity > 0 holds exactly when Checked is true.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Aisle    string `json:"aisle"`
	Checked  bool   `json:"checked"`
	Quantity int    `json:"quantity"`
}

// SetQuantity applies q with the checked/quantity invariant: positive values
// check the product and clamp to [1, MaxQuantity], anything else unchecks it.
func (p *Product) SetQuantity(q int) {
	if q > 0 {
		p.Checked = true
		p.Quantity = min(q, MaxQuantity)
		return
	}
	p.Checked = false
	p.Quantity = 0
}

// Toggle flips Checked. Checking sets quantity 1, unchecking sets 0.
func (p *Product) Toggle() {
	if p.Checked {
		p.SetQuantity(0)
	} else {
		p.SetQuantity(1)
	}
}

// normalize repairs a record read from storage. Checked is authoritative:
// a checked record keeps its quantity clamped to [1, MaxQuantity] and an
// unchecked one is forced to zero.
func (p *Product) normalize() {
	if !p.Checked {
		p.Quantity = 0
		return
	}
	p.SetQuantity(max(p.Quantity, 1))
}

func (p *Product) reset() {
	p.Checked = false
	p.Quantity = 0
}

// Catalog is the authoritative, ordered list of products.
type Catalog []Product

// Clone returns a copy of the catalog with every selection cleared.
func (c Catalog) Clone() []Product {
	out := make([]Product, len(c))
	for i, p := range c {
		p.reset()
		out[i] = p
	}
	return out
}

// Snapshot is the persisted state of one identity's list.
type Snapshot struct {
	Products     []Product `json:"products"`
	Observations string    `json:"observations"`
}

// Checked returns the checked products in list order.
func (s Snapshot) Checked() []Product {
	var out []Product
	for _, p := range s.Products {
		if p.Checked {
			out = append(out, p)
		}
	}
	return out
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Products:     append([]Product(nil), s.Products...),
		Observations: s.Observations,
	}
}

// Capability is a privilege an identity may hold.
type Capability string

const (
	CapEditMaster    Capability = "edit-master"
	CapImportCatalog Capability = "import-catalog"
	CapManageUsers   Capability = "manage-users"
)

// AllCapabilities lists every capability, in display order.
var AllCapabilities = []Capability{CapEditMaster, CapImportCatalog, CapManageUsers}

// Identity names the owner of a list and what it may do.
type Identity struct {
	Name string
	Caps []Capability
}

// Anonymous is the identity used when nobody has logged in.
func Anonymous() Identity {
	return Identity{Name: AnonymousName}
}

// Can reports whether the identity holds c.
func (id Identity) Can(c Capability) bool {
	for _, have := range id.Caps {
		if have == c {
			return true
		}
	}
	return false
}

// IsAnonymous reports whether id is the anonymous identity.
func (id Identity) IsAnonymous() bool {
	return id.Name == "" || id.Name == AnonymousName
}

// SnapshotKey is the storage key for the identity's list.
func (id Identity) SnapshotKey() string {
	if id.IsAnonymous() {
		return SnapshotKeyPrefix + AnonymousName
	}
	return SnapshotKeyPrefix + id.Name
}

var legacyNamespace = uuid.MustParse("6f1c9f0e-3a55-4d52-9a3e-2f6d7c1b8e40")

// ensureIDs assigns deterministic IDs to records persisted before products
// carried one, so reloading the same data always yields the same IDs.
func ensureIDs(products []Product) {
	for i := range products {
		if products[i].ID != "" {
			continue
		}
		seed := fmt.Sprintf("%d\x00%s\x00%s", i, products[i].Aisle, products[i].Name)
		products[i].ID = uuid.NewSHA1(legacyNamespace, []byte(seed)).String()
	}
}

// findProduct resolves ref by ID first, then by exact name, then by name
// ignoring case.
func findProduct(products []Product, ref string) int {
	for i := range products {
		if products[i].ID == ref {
			return i
		}
	}
	for i := range products {
		if products[i].Name == ref {
			return i
		}
	}
	for i := range products {
		if strings.EqualFold(products[i].Name, ref) {
			return i
		}
	}
	return -1
}
