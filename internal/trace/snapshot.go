package trace

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// hudPrinter formats HUD numbers with thousands separators.
var hudPrinter = message.NewPrinter(language.English)

// HUD is the status line drawn over a snapshot.
type HUD struct {
	Frames    uint64
	FrameTime time.Duration
	Workers   int
	Width     int
	Height    int
}

// String formats the HUD line.
func (h HUD) String() string {
	ms := float64(h.FrameTime) / float64(time.Millisecond)
	return hudPrinter.Sprintf("frame %d  %.2f ms  %d workers  %dx%d",
		h.Frames, ms, h.Workers, h.Width, h.Height)
}

// DrawHUD draws line in the top-left corner of img over a dark band.
func DrawHUD(img draw.Image, line string) {
	face := basicfont.Face7x13
	b := img.Bounds()

	band := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+face.Height+4)
	draw.Draw(img, band, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(b.Min.X+4, b.Min.Y+face.Ascent+2),
	}
	d.DrawString(line)
}

// Snapshot writes the last frame to path as PNG. A non-empty hud line is
// drawn over the image; the renderer's frame is left untouched.
func (r *Renderer) Snapshot(path, hud string) error {
	img := r.Frame()
	if hud != "" {
		DrawHUD(img, hud)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: create snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("trace: encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("trace: close snapshot: %w", err)
	}
	slogger().Info("trace: snapshot written", "path", path)
	return nil
}
