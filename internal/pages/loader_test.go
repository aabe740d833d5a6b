package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/kyc-extractor/internal/common"
)

// fakeRunner pretends to be pdftoppm: it writes n pages next to the prefix argument.
type fakeRunner struct {
	pages int
	args  []string
	dir   string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	prefix := args[len(args)-1]
	f.dir = filepath.Dir(prefix)
	for i := 1; i <= f.pages; i++ {
		name := fmt.Sprintf("%s-%02d.png", prefix, i)
		if err := os.WriteFile(name, []byte(fmt.Sprintf("page-%d", i)), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoader_Image(t *testing.T) {
	l := NewLoader(Config{ScratchDir: t.TempDir()}, nil)
	data := pngBytes(t)

	pages, err := l.Load(context.Background(), "front.PNG", data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(pages) != 1 || pages[0].Index != 1 || !bytes.Equal(pages[0].PNG, data) {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}

func TestLoader_InputErrors(t *testing.T) {
	l := NewLoader(Config{ScratchDir: t.TempDir()}, nil)
	ctx := context.Background()

	tests := map[string]struct {
		filename string
		data     []byte
	}{
		"empty upload":      {"a.png", nil},
		"unsupported ext":   {"notes.docx", []byte("x")},
		"undecodable image": {"a.jpg", []byte("not a jpeg")},
		"garbage pdf":       {"a.pdf", []byte("%PDF-1.4 nonsense")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := l.Load(ctx, tt.filename, tt.data)
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("expected input error, got %v", err)
			}
		})
	}
}

func TestLoader_PDF(t *testing.T) {
	scratch := t.TempDir()
	runner := &fakeRunner{pages: 3}
	l := NewLoader(Config{ScratchDir: scratch, DPI: 150, MaxPages: 5}, nil).WithRunner(runner)
	l.countPages = func(string) (int, error) { return 3, nil }

	pages, err := l.Load(context.Background(), "payslips.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Index != i+1 || string(p.PNG) != fmt.Sprintf("page-%d", i+1) {
			t.Errorf("page %d out of order: %+v", i, p)
		}
	}

	wantArgs := []string{"pdftoppm", "-r", "150", "-png", "-l", "5"}
	for i, a := range wantArgs {
		if runner.args[i] != a {
			t.Errorf("arg %d = %q, want %q", i, runner.args[i], a)
		}
	}

	if _, err := os.Stat(runner.dir); !os.IsNotExist(err) {
		t.Errorf("temp dir %s should be removed, stat err = %v", runner.dir, err)
	}
	entries, _ := os.ReadDir(scratch)
	if len(entries) != 0 {
		t.Errorf("scratch dir should be empty, found %d entries", len(entries))
	}
}

func TestLoader_PDFRasterizeFailureCleansUp(t *testing.T) {
	scratch := t.TempDir()
	runner := &fakeRunner{err: errors.New("exit status 1")}
	l := NewLoader(Config{ScratchDir: scratch}, nil).WithRunner(runner)
	l.countPages = func(string) (int, error) { return 1, nil }

	if _, err := l.Load(context.Background(), "a.pdf", []byte("%PDF")); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(scratch)
	if len(entries) != 0 {
		t.Errorf("scratch dir should be empty, found %d entries", len(entries))
	}
}

// heicRunner stands in for an image converter by copying a PNG to the last path argument.
type heicRunner struct {
	png  []byte
	name string
	args []string
}

func (h *heicRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	h.name, h.args = name, args
	return nil, nil, os.WriteFile(args[len(args)-1], h.png, 0o600)
}

func TestLoader_HEIC(t *testing.T) {
	for _, converter := range []string{"magick", "sips"} {
		t.Run(converter, func(t *testing.T) {
			r := &heicRunner{png: pngBytes(t)}
			l := NewLoader(Config{ScratchDir: t.TempDir(), HeicConverter: converter}, nil).WithRunner(r)

			pages, err := l.Load(context.Background(), "IMG_0001.HEIC", []byte("heic bytes"))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(pages) != 1 || !bytes.Equal(pages[0].PNG, r.png) {
				t.Fatalf("unexpected pages: %+v", pages)
			}
			if r.name != converter || filepath.Ext(r.args[len(r.args)-1]) != ".png" {
				t.Errorf("ran %s %v", r.name, r.args)
			}
		})
	}
}

func TestLoader_HEICWithoutConverter(t *testing.T) {
	l := NewLoader(Config{ScratchDir: t.TempDir()}, nil)
	_, err := l.Load(context.Background(), "IMG_0001.heic", []byte("heic bytes"))
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("want input error, got %v", err)
	}
}
