package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/shoplist/internal/storage"
)

const testCatalog = "Pasillo;Artículo\n" +
	"1 Lácteos;Leche\n" +
	"3 Bebidas;Agua\n" +
	"2 Panadería;Pan\n" +
	";Sal\n"

// =============================================================================
// Helpers
// =============================================================================

func newTestService(t *testing.T) (*Service, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	svc := NewService(mem, Options{Admins: []string{"admin"}, MaxUsers: 2, Locale: "es"})
	return svc, mem
}

func seededService(t *testing.T) (*Service, *storage.Memory, Identity) {
	t.Helper()
	svc, mem := newTestService(t)
	admin := svc.Identify("admin")
	if _, err := svc.ImportCatalog(context.Background(), admin, strings.NewReader(testCatalog)); err != nil {
		t.Fatalf("ImportCatalog() error = %v", err)
	}
	return svc, mem, admin
}

func storedSnapshot(t *testing.T, mem *storage.Memory, key string) Snapshot {
	t.Helper()
	data, err := mem.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", key, err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode %q: %v", key, err)
	}
	return snap
}

func productNamed(t *testing.T, snap Snapshot, name string) Product {
	t.Helper()
	for _, p := range snap.Products {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("product %q not in snapshot", name)
	return Product{}
}

// =============================================================================
// Open and mutations
// =============================================================================

func TestService_OpenPersistsNewList(t *testing.T) {
	svc, mem, _ := seededService(t)
	ctx := context.Background()
	ana := svc.Identify("ana")

	sess, err := svc.Open(ctx, ana)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := len(sess.Snapshot().Products); got != 4 {
		t.Errorf("new list has %d products, want 4", got)
	}
	wantAisles := []string{"1 Lácteos", "2 Panadería", "3 Bebidas", DefaultAisle}
	if got := sess.Aisles(); strings.Join(got, "|") != strings.Join(wantAisles, "|") {
		t.Errorf("Aisles() = %v, want %v", got, wantAisles)
	}

	stored := storedSnapshot(t, mem, "products_ana")
	if len(stored.Products) != 4 {
		t.Errorf("stored list has %d products, want 4", len(stored.Products))
	}
}

func TestService_MutationsPersist(t *testing.T) {
	svc, mem, _ := seededService(t)
	ctx := context.Background()
	ana := svc.Identify("ana")

	out, err := svc.Toggle(ctx, ana, "Leche")
	if err != nil || !out.Applied || out.Warning != "" {
		t.Fatalf("Toggle() = %+v, %v", out, err)
	}
	if out.Product.Quantity != 1 {
		t.Errorf("Toggle() quantity = %d, want 1", out.Product.Quantity)
	}

	if _, err := svc.SetQuantity(ctx, ana, out.Product.ID, 999); err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if _, err := svc.SetQuantityString(ctx, ana, "Agua", "abc"); err != nil {
		t.Fatalf("SetQuantityString() error = %v", err)
	}
	if _, err := svc.SetAisle(ctx, ana, "Pan", "9 Ofertas"); err != nil {
		t.Fatalf("SetAisle() error = %v", err)
	}
	if _, err := svc.SetObservations(ctx, ana, "sin lactosa"); err != nil {
		t.Fatalf("SetObservations() error = %v", err)
	}

	stored := storedSnapshot(t, mem, "products_ana")
	if p := productNamed(t, stored, "Leche"); !p.Checked || p.Quantity != MaxQuantity {
		t.Errorf("stored Leche = %+v, want checked x%d", p, MaxQuantity)
	}
	if p := productNamed(t, stored, "Agua"); p.Checked {
		t.Errorf("stored Agua = %+v, want unchecked", p)
	}
	if p := productNamed(t, stored, "Pan"); p.Aisle != "9 Ofertas" {
		t.Errorf("stored Pan aisle = %q, want %q", p.Aisle, "9 Ofertas")
	}
	if stored.Observations != "sin lactosa" {
		t.Errorf("stored observations = %q", stored.Observations)
	}

	// A plain user's edits never reach the master catalog.
	if len(svc.Catalog()) != 4 || svc.Catalog()[2].Aisle != "2 Panadería" {
		t.Errorf("master catalog changed by a plain user: %+v", svc.Catalog())
	}
}

func TestService_MissingProductIsNoOp(t *testing.T) {
	svc, _, _ := seededService(t)

	out, err := svc.Toggle(context.Background(), svc.Identify("ana"), "Caviar")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if out.Applied || out.Product != nil {
		t.Errorf("Toggle(missing) = %+v, want not applied", out)
	}
}

func TestService_PersistFailureIsWarning(t *testing.T) {
	svc, mem, _ := seededService(t)
	ctx := context.Background()
	ana := svc.Identify("ana")
	if _, err := svc.Open(ctx, ana); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	mem.FailWith = errors.New("quota exceeded")
	out, err := svc.Toggle(ctx, ana, "Pan")
	if err != nil {
		t.Fatalf("Toggle() error = %v, want nil", err)
	}
	if !out.Applied {
		t.Error("Toggle() not applied")
	}
	if !strings.Contains(out.Warning, "STO001") {
		t.Errorf("Warning = %q, want STO001", out.Warning)
	}

	snap, _ := svc.Snapshot(ctx, ana)
	if !productNamed(t, snap, "Pan").Checked {
		t.Error("in-memory change lost after persist failure")
	}
}

func TestService_ClearAll(t *testing.T) {
	svc, _, _ := seededService(t)
	ctx := context.Background()
	ana := svc.Identify("ana")

	svc.SetQuantity(ctx, ana, "Leche", 4)
	svc.SetObservations(ctx, ana, "nota")
	if _, err := svc.ClearAll(ctx, ana); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	snap, _ := svc.Snapshot(ctx, ana)
	if len(snap.Checked()) != 0 || snap.Observations != "" {
		t.Errorf("after ClearAll = %+v", snap)
	}
}

func TestService_ImportText(t *testing.T) {
	svc, _, _ := seededService(t)
	ctx := context.Background()
	ana := svc.Identify("ana")

	src := "1 Lácteos:\n- leche (3)\n- Yogur (1)\n\nOBSERVACIONES:\nir temprano\n"
	out, err := svc.ImportText(ctx, ana, strings.NewReader(src))
	if err != nil {
		t.Fatalf("ImportText() error = %v", err)
	}
	if out.Import == nil || out.Import.Found != 2 || out.Import.Updated != 1 {
		t.Fatalf("ImportText() = %+v", out.Import)
	}
	if len(out.Import.Unmatched) != 1 || out.Import.Unmatched[0] != "Yogur" {
		t.Errorf("Unmatched = %v", out.Import.Unmatched)
	}

	snap, _ := svc.Snapshot(ctx, ana)
	if p := productNamed(t, snap, "Leche"); p.Quantity != 3 {
		t.Errorf("Leche = %+v, want x3", p)
	}
	if snap.Observations != "ir temprano" {
		t.Errorf("Observations = %q", snap.Observations)
	}
}

// =============================================================================
// Catalog and master list
// =============================================================================

func TestService_ImportCatalogErrorKeepsCatalog(t *testing.T) {
	svc, mem, admin := seededService(t)
	before, _ := mem.Get(context.Background(), MasterKey)

	_, err := svc.ImportCatalog(context.Background(), admin, strings.NewReader("Pasillo;Artículo\n"))
	if !IsImportError(err) {
		t.Fatalf("ImportCatalog(header only) error = %v, want ImportError", err)
	}
	if len(svc.Catalog()) != 4 {
		t.Errorf("catalog has %d products after failed import, want 4", len(svc.Catalog()))
	}
	after, _ := mem.Get(context.Background(), MasterKey)
	if string(before) != string(after) {
		t.Error("persisted master changed after failed import")
	}
}

func TestService_ImportCatalogRequiresCapability(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ImportCatalog(context.Background(), svc.Identify("ana"), strings.NewReader(testCatalog))
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("ImportCatalog() error = %v, want ErrForbidden", err)
	}
}

func TestService_ReimportReconcilesOtherLists(t *testing.T) {
	svc, _, admin := seededService(t)
	ctx := context.Background()
	ana := svc.Identify("ana")
	svc.SetQuantity(ctx, ana, "Leche", 2)
	svc.SetQuantity(ctx, ana, "Sal", 1)

	next := "Pasillo;Artículo\n1 Lácteos;Leche\n1 Lácteos;Mantequilla\n"
	if _, err := svc.ImportCatalog(ctx, admin, strings.NewReader(next)); err != nil {
		t.Fatalf("ImportCatalog() error = %v", err)
	}

	snap, err := svc.Snapshot(ctx, ana)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Products) != 2 {
		t.Fatalf("ana's list has %d products, want 2", len(snap.Products))
	}
	if p := productNamed(t, snap, "Leche"); p.Quantity != 2 {
		t.Errorf("Leche = %+v, want selection kept", p)
	}
	if p := productNamed(t, snap, "Mantequilla"); p.Checked {
		t.Errorf("new product Mantequilla = %+v, want unchecked", p)
	}
}

func TestService_AdminSaveRewritesMaster(t *testing.T) {
	svc, mem, admin := seededService(t)
	ctx := context.Background()

	out, err := svc.AddProduct(ctx, admin, "Huevos", "1 Lácteos")
	if err != nil || !out.Applied {
		t.Fatalf("AddProduct() = %+v, %v", out, err)
	}
	if _, err := svc.SetQuantity(ctx, admin, "Leche", 5); err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}

	data, err := mem.Get(ctx, MasterKey)
	if err != nil {
		t.Fatalf("Get(master) error = %v", err)
	}
	var master []Product
	if err := json.Unmarshal(data, &master); err != nil {
		t.Fatalf("decode master: %v", err)
	}
	if len(master) != 5 || master[4].Name != "Huevos" {
		t.Fatalf("master = %+v, want Huevos appended", master)
	}
	for _, p := range master {
		if p.Checked || p.Quantity != 0 {
			t.Errorf("master carries a selection: %+v", p)
		}
	}
	if len(svc.Catalog()) != 5 {
		t.Errorf("in-memory catalog has %d products, want 5", len(svc.Catalog()))
	}

	snap, _ := svc.Snapshot(ctx, svc.Identify("ana"))
	if len(snap.Products) != 5 {
		t.Errorf("ana sees %d products, want 5", len(snap.Products))
	}
}

func TestService_ProductManagement(t *testing.T) {
	svc, _, admin := seededService(t)
	ctx := context.Background()

	if _, err := svc.AddProduct(ctx, svc.Identify("ana"), "Huevos", "1 Lácteos"); !errors.Is(err, ErrForbidden) {
		t.Errorf("AddProduct(non-admin) error = %v, want ErrForbidden", err)
	}
	if _, err := svc.AddProduct(ctx, admin, " ", "1 Lácteos"); !errors.Is(err, ErrInvalidProduct) {
		t.Errorf("AddProduct(blank name) error = %v, want ErrInvalidProduct", err)
	}

	out, err := svc.EditProduct(ctx, admin, "Pan", "Pan integral", "2 Panadería")
	if err != nil || !out.Applied || out.Product.Name != "Pan integral" {
		t.Fatalf("EditProduct() = %+v, %v", out, err)
	}
	out, err = svc.DeleteProduct(ctx, admin, out.Product.ID)
	if err != nil || !out.Applied {
		t.Fatalf("DeleteProduct() = %+v, %v", out, err)
	}
	out, _ = svc.DeleteProduct(ctx, admin, "Pan integral")
	if out.Applied {
		t.Error("DeleteProduct(already deleted) applied")
	}

	if got := len(svc.Catalog()); got != 3 {
		t.Errorf("catalog has %d products, want 3", got)
	}
	if got := svc.Aisles(); len(got) != 3 {
		t.Errorf("Aisles() = %v, want 3 aisles after removing the only bakery product", got)
	}
}

func TestService_LoadMaster(t *testing.T) {
	_, mem, _ := seededService(t)

	fresh := NewService(mem, Options{Admins: []string{"admin"}})
	if err := fresh.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(fresh.Catalog()) != 4 {
		t.Errorf("loaded %d products, want 4", len(fresh.Catalog()))
	}

	empty := NewService(storage.NewMemory(), Options{})
	if err := empty.Load(context.Background()); err != nil {
		t.Fatalf("Load(no master) error = %v", err)
	}
	if len(empty.Catalog()) != 0 {
		t.Error("catalog should be empty without a master")
	}
}

func TestService_LegacySnapshotFormat(t *testing.T) {
	svc, mem, _ := seededService(t)
	ctx := context.Background()

	legacy := `[{"name":"Agua","aisle":"3 Bebidas","checked":true,"quantity":2}]`
	mem.Put(ctx, "products_luis", []byte(legacy))

	snap, err := svc.Snapshot(ctx, svc.Identify("luis"))
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if p := productNamed(t, snap, "Agua"); !p.Checked || p.Quantity != 2 {
		t.Errorf("Agua = %+v, want selection from legacy snapshot", p)
	}
}

// =============================================================================
// Reset and show-all
// =============================================================================

func TestService_ResetAndShowAll(t *testing.T) {
	svc, mem, _ := seededService(t)
	ctx := context.Background()
	ana := svc.Identify("ana")
	svc.Toggle(ctx, ana, "Leche")

	if _, err := svc.Reset(ctx, ana, false); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := mem.Get(ctx, "products_ana"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("snapshot not purged: %v", err)
	}
	snap, _ := svc.Snapshot(ctx, ana)
	if len(snap.Products) != 0 {
		t.Fatalf("list has %d products after reset, want 0", len(snap.Products))
	}

	out, err := svc.ShowAll(ctx, ana)
	if err != nil || !out.Applied {
		t.Fatalf("ShowAll() = %+v, %v", out, err)
	}
	snap, _ = svc.Snapshot(ctx, ana)
	if len(snap.Products) != 4 || len(snap.Checked()) != 0 {
		t.Errorf("after ShowAll = %+v, want unchecked catalog", snap)
	}

	out, _ = svc.ShowAll(ctx, ana)
	if out.Applied {
		t.Error("ShowAll() on a non-empty list should not reload")
	}
}

func TestService_ResetWithReload(t *testing.T) {
	svc, mem, admin := seededService(t)
	ctx := context.Background()
	svc.Toggle(ctx, admin, "Agua")

	if _, err := svc.Reset(ctx, admin, false); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	snap := storedSnapshot(t, mem, "products_admin")
	if len(snap.Products) != 4 || len(snap.Checked()) != 0 {
		t.Errorf("admin list after reset = %+v, want reloaded catalog", snap)
	}
	if len(svc.Catalog()) != 4 {
		t.Error("admin reset emptied the master catalog")
	}
}

// =============================================================================
// Users
// =============================================================================

func TestService_Users(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	admin := svc.Identify("admin")

	if _, err := svc.AddUser(ctx, svc.Identify("ana"), "luis"); !errors.Is(err, ErrForbidden) {
		t.Errorf("AddUser(non-admin) error = %v, want ErrForbidden", err)
	}

	for _, name := range []string{"Ana", "luis"} {
		if _, err := svc.AddUser(ctx, admin, name); err != nil {
			t.Fatalf("AddUser(%q) error = %v", name, err)
		}
	}

	tests := []struct {
		name string
		want error
	}{
		{"ANA", ErrUserExists},
		{"Admin", ErrReservedName},
		{"anonymous", ErrReservedName},
		{"", ErrInvalidUser},
		{"marta", ErrUserLimit},
	}
	for _, tt := range tests {
		if _, err := svc.AddUser(ctx, admin, tt.name); !errors.Is(err, tt.want) {
			t.Errorf("AddUser(%q) error = %v, want %v", tt.name, err, tt.want)
		}
	}

	id, err := svc.Login(ctx, "ana")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if id.Name != "Ana" || id.Can(CapEditMaster) {
		t.Errorf("Login(ana) = %+v, want registered spelling without capabilities", id)
	}
	if _, err := svc.Login(ctx, "pepe"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("Login(unregistered) error = %v, want ErrUnknownUser", err)
	}
	if id, err := svc.Login(ctx, "ADMIN"); err != nil || !id.Can(CapManageUsers) {
		t.Errorf("Login(ADMIN) = %+v, %v", id, err)
	}

	svc.Toggle(ctx, id, "x")
	if _, err := svc.RenameUser(ctx, admin, "ana", "Anita"); err != nil {
		t.Fatalf("RenameUser() error = %v", err)
	}
	if _, err := mem.Get(ctx, "products_Anita"); err != nil {
		t.Errorf("list not moved to new name: %v", err)
	}
	if _, err := mem.Get(ctx, "products_Ana"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("old list still present: %v", err)
	}

	if err := svc.DeleteUser(ctx, admin, "anita"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if ok, _ := svc.IsRegistered(ctx, "Anita"); ok {
		t.Error("deleted user still registered")
	}
	if _, err := mem.Get(ctx, "products_Anita"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("deleted user's list not purged: %v", err)
	}

	users, _ := svc.Users(ctx)
	if len(users) != 1 || users[0].Username != "luis" {
		t.Errorf("Users() = %+v, want [luis]", users)
	}
}

func TestService_AdminSpellingSharesOneList(t *testing.T) {
	svc, mem, _ := seededService(t)
	ctx := context.Background()

	for _, name := range []string{"Admin", " ADMIN ", "admin"} {
		if got := svc.Identify(name).Name; got != "admin" {
			t.Errorf("Identify(%q).Name = %q, want configured spelling", name, got)
		}
	}

	id, err := svc.Login(ctx, "Admin")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := svc.Toggle(ctx, id, "Leche"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if _, err := mem.Get(ctx, "products_Admin"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("separate list created for a different spelling: %v", err)
	}
	if p := productNamed(t, storedSnapshot(t, mem, "products_admin"), "Leche"); !p.Checked {
		t.Error("toggle did not reach the admin list")
	}
}
