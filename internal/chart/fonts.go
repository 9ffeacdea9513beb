package chart

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

var (
	regularFont *sfnt.Font
	boldFont    *sfnt.Font
	fontOnce    sync.Once
	fontErr     error
)

func loadFonts() error {
	fontOnce.Do(func() {
		var err error
		regularFont, err = opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse Go Regular: %w", err)
			return
		}
		boldFont, err = opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse Go Bold: %w", err)
			return
		}
	})
	return fontErr
}

// faces holds the font faces for one render. A face keeps rasterizer state,
// so faces are never shared between goroutines.
type faces struct {
	label font.Face
	title font.Face
}

func newFaces() (*faces, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}

	label, err := opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size:    13,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create label face: %w", err)
	}

	title, err := opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size:    18,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		label.Close()
		return nil, fmt.Errorf("create title face: %w", err)
	}

	return &faces{label: label, title: title}, nil
}

func (f *faces) Close() {
	f.label.Close()
	f.title.Close()
}
