package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/shoplist/internal/core"
)

const testCatalog = "Pasillo;Artículo\n" +
	"1 Lácteos;Leche\n" +
	"3 Bebidas;Agua\n" +
	"2 Panadería;Pan\n"

// setupEnv points the store at a fresh sqlite file and returns a scratch
// directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_DSN", filepath.Join(dir, "shop.db"))
	t.Setenv("ADMIN_USERS", "admin")
	t.Setenv("USERS_MAX", "3")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SHOPLIST_USER", "")
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(dir, "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportCatalog(t *testing.T) {
	dir := setupEnv(t)
	path := writeFile(t, dir, "catalogo.csv", testCatalog)

	if _, err := run(t, dir, "import-catalog", path); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("anonymous import error = %v, want ErrForbidden", err)
	}

	out, err := run(t, dir, "--user", "admin", "import-catalog", path)
	if err != nil {
		t.Fatalf("import-catalog error = %v", err)
	}
	if !strings.Contains(out, "Imported 3 products in 3 aisles") {
		t.Errorf("output = %q", out)
	}
}

func TestUsers(t *testing.T) {
	dir := setupEnv(t)

	if _, err := run(t, dir, "users", "list"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("anonymous users list error = %v, want ErrForbidden", err)
	}
	if _, err := run(t, dir, "-u", "admin", "users", "add", "ana"); err != nil {
		t.Fatalf("users add error = %v", err)
	}
	if _, err := run(t, dir, "-u", "admin", "users", "rename", "ana", "bea"); err != nil {
		t.Fatalf("users rename error = %v", err)
	}

	out, err := run(t, dir, "-u", "admin", "users", "list")
	if err != nil {
		t.Fatalf("users list error = %v", err)
	}
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "bea") || strings.Contains(out, "ana") {
		t.Errorf("users list = %q", out)
	}

	if _, err := run(t, dir, "-u", "ghost", "export"); !errors.Is(err, core.ErrUnknownUser) {
		t.Errorf("unknown user error = %v, want ErrUnknownUser", err)
	}

	if _, err := run(t, dir, "-u", "admin", "users", "delete", "bea"); err != nil {
		t.Fatalf("users delete error = %v", err)
	}
	out, _ = run(t, dir, "-u", "admin", "users", "list")
	if strings.Contains(out, "bea") {
		t.Errorf("deleted user still listed: %q", out)
	}
}

func TestImportListAndExport(t *testing.T) {
	dir := setupEnv(t)
	if _, err := run(t, dir, "-u", "admin", "import-catalog", writeFile(t, dir, "catalogo.csv", testCatalog)); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "import-list", writeFile(t, dir, "lista.txt", "1 Lácteos:\n- Leche (2)\n"))
	if err != nil {
		t.Fatalf("import-list error = %v", err)
	}
	if !strings.Contains(out, "Found 1 entries") {
		t.Errorf("import-list output = %q", out)
	}

	exportDir := filepath.Join(dir, "out")
	if err := os.Mkdir(exportDir, 0o755); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, dir, "export", "--format", "txt", "--dir", exportDir)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	data, err := os.ReadFile(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("read export %q: %v", out, err)
	}
	if !strings.Contains(string(data), "Leche x2") {
		t.Errorf("export = %q", data)
	}

	if _, err := run(t, dir, "export", "--format", "docx", "--dir", exportDir); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestReset(t *testing.T) {
	dir := setupEnv(t)
	if _, err := run(t, dir, "-u", "admin", "import-catalog", writeFile(t, dir, "catalogo.csv", testCatalog)); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "reset", "--reload")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(out, "List of anonymous reset") {
		t.Errorf("reset output = %q", out)
	}

	if _, err := run(t, dir, "reset", "--purge", "lists", "--yes"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("anonymous purge error = %v, want ErrForbidden", err)
	}
	if _, err := run(t, dir, "-u", "admin", "reset", "--purge", "lists"); !errors.Is(err, errNotConfirmed) {
		t.Errorf("unconfirmed purge error = %v, want errNotConfirmed", err)
	}
	if _, err := run(t, dir, "-u", "admin", "reset", "--purge", "everything", "--yes"); err == nil {
		t.Error("unknown purge scope accepted")
	}
	out, err = run(t, dir, "-u", "admin", "reset", "--purge", "all", "--yes")
	if err != nil {
		t.Fatalf("purge error = %v", err)
	}
	if !strings.Contains(out, "Purged") {
		t.Errorf("purge output = %q", out)
	}
}

func TestUserMessage(t *testing.T) {
	if got := userMessage(errors.New("plain failure")); got != "plain failure" {
		t.Errorf("userMessage(plain) = %q", got)
	}
	if got := userMessage(core.ErrForbidden); !strings.Contains(got, "Code:") {
		t.Errorf("userMessage(ErrForbidden) = %q, want a coded message", got)
	}
}
