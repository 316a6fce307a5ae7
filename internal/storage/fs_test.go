package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/wikigraph/internal/apperr"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func tempTree(t *testing.T, files map[string]string, opts ...Option) *FS {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		writeFile(t, dir, rel, []byte(content))
	}
	fs, err := NewFS(dir, opts...)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

type visit struct {
	Dir     string
	Subdirs []string
	Files   []string
}

func TestWalk_ParentsFirstLexical(t *testing.T) {
	s := tempTree(t, map[string]string{
		"start.txt":     "",
		"b/page.txt":    "",
		"a/x.txt":       "",
		"a/deep/y.txt":  "",
		"a/deep/z.txt":  "",
		"a/another.txt": "",
	})

	var got []visit
	err := s.Walk(func(dir string, subdirs, files []string) error {
		got = append(got, visit{dir, subdirs, files})
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []visit{
		{"", []string{"a", "b"}, []string{"start.txt"}},
		{"a", []string{"deep"}, []string{"another.txt", "x.txt"}},
		{"a/deep", nil, []string{"y.txt", "z.txt"}},
		{"b", nil, []string{"page.txt"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("walk = %+v\nwant %+v", got, want)
	}
}

func TestWalk_Ignore(t *testing.T) {
	s := tempTree(t, map[string]string{
		"keep.txt":         "",
		"playground/x.txt": "",
		"ns/old.txt.bak":   "",
		"ns/page.txt":      "",
	}, WithIgnore("playground", "**.bak"))

	files, err := s.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"keep.txt", "ns/page.txt"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestWalk_IgnoreNested(t *testing.T) {
	s := tempTree(t, map[string]string{
		"top.bak":             "",
		"ns/x.bak":            "",
		"ns/x.txt":            "",
		"ns/attic/y.txt":      "",
		"attic/z.txt":         "",
		"ns/sub/keep.txt":     "",
		"ns/sub/drafts/d.txt": "",
	}, WithIgnore("*.bak", "attic", "ns/sub/drafts"))

	files, err := s.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"ns/sub/keep.txt", "ns/x.txt"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestWithIgnore_BadPattern(t *testing.T) {
	if _, err := NewFS(t.TempDir(), WithIgnore("[")); err == nil {
		t.Error("expected error for malformed glob")
	}
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	s := tempTree(t, map[string]string{"a/b.txt": ""})
	stop := errors.New("stop")
	err := s.Walk(func(string, []string, []string) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("err = %v, want stop", err)
	}
}

func TestReadText_UTF8(t *testing.T) {
	s := tempTree(t, map[string]string{"p.txt": "Grüße [[link]]"})
	got, err := s.ReadText("p.txt")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "Grüße [[link]]" {
		t.Errorf("text = %q", got)
	}
}

func TestReadText_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.txt", []byte{'G', 'r', 0xfc, 'n'})
	s, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.ReadText("bad.txt")
	if !errors.Is(err, apperr.ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestReadText_Latin1(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.txt", []byte{'G', 'r', 0xfc, 'n'})
	s, err := NewFS(dir, WithEncoding("ISO-8859-1"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadText("p.txt")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "Grün" {
		t.Errorf("text = %q, want Grün", got)
	}
}

func TestLookupEncoding_Unsupported(t *testing.T) {
	_, err := LookupEncoding("ebcdic")
	if !errors.Is(err, apperr.ErrUnsupportedEncoding) {
		t.Errorf("err = %v", err)
	}
	if _, err := NewFS(t.TempDir(), WithEncoding("ebcdic")); err == nil {
		t.Error("NewFS should reject unknown encoding")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempTree(t, map[string]string{"a.txt": "x"})
	for _, p := range []string{"../../etc/passwd", "../outside.txt", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
	}
}

func TestReadText_Missing(t *testing.T) {
	s := tempTree(t, nil)
	_, err := s.ReadText("nope.txt")
	if err == nil || !strings.Contains(err.Error(), "nope.txt") {
		t.Errorf("err = %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err should wrap ErrNotExist: %v", err)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "wikigraph-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
