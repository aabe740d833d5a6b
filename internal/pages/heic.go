package pages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/imaging"
)

// loadHEIC converts a phone photo to PNG with the configured converter.
func (l *Loader) loadHEIC(ctx context.Context, ext string, data []byte) ([]Page, error) {
	args, ok := heicArgs(l.cfg.HeicConverter)
	if !ok {
		l.logger.Warn("pages.heic.no_converter", "converter", l.cfg.HeicConverter)
		return nil, common.NewInputError("HEIC uploads are not supported on this server")
	}

	tmpDir, cleanup, err := l.scratch()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	in := filepath.Join(tmpDir, "upload."+ext)
	out := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if _, errb, err := l.runner.Run(ctx, l.cfg.HeicConverter, args(in, out)...); err != nil {
		return nil, fmt.Errorf("%s convert failed: %w: %s", l.cfg.HeicConverter, err, truncate(string(errb), 512))
	}

	b, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	png, err := imaging.ToPNG(b)
	if err != nil {
		return nil, fmt.Errorf("decode converted HEIC: %w", err)
	}
	return []Page{{Index: 1, PNG: png}}, nil
}

func heicArgs(converter string) (func(in, out string) []string, bool) {
	switch converter {
	case "magick", "heif-convert":
		return func(in, out string) []string { return []string{in, out} }, true
	case "sips":
		return func(in, out string) []string { return []string{"-s", "format", "png", in, "--out", out} }, true
	default:
		return nil, false
	}
}
