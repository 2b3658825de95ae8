package parallel

import "image/color"

// Tile size constants. A full tile is 16KB of RGBA, which fits in L1 cache
// and gives enough tiles per frame to keep every worker busy.
const (
	// TileWidth is the width of a tile in pixels.
	TileWidth = 64

	// TileHeight is the height of a tile in pixels.
	TileHeight = 64

	// TilePixels is the total number of pixels in a full tile.
	TilePixels = TileWidth * TileHeight

	// TileBytes is the size of a full tile in bytes (RGBA = 4 bytes per pixel).
	TileBytes = TilePixels * 4
)

// Tile is a rectangular region of the frame that one job renders.
//
// Edge tiles may be smaller than TileWidth x TileHeight when the frame is
// not evenly divisible by the tile size.
type Tile struct {
	// X is the tile column index (0-based).
	X int

	// Y is the tile row index (0-based).
	Y int

	// Width is the actual width in pixels.
	Width int

	// Height is the actual height in pixels.
	Height int

	// Data contains the RGBA pixels owned by this tile, row-major,
	// Width * Height * 4 bytes.
	Data []byte
}

// Bounds returns the pixel bounds of this tile in frame space.
// Returns (x, y, width, height) where x,y is the top-left corner.
func (t *Tile) Bounds() (x, y, w, h int) {
	return t.X * TileWidth, t.Y * TileHeight, t.Width, t.Height
}

// Stride returns the row stride in bytes.
func (t *Tile) Stride() int {
	return t.Width * 4
}

// Set stores c at tile-local pixel (px, py). Out of range writes are ignored.
func (t *Tile) Set(px, py int, c color.RGBA) {
	if px < 0 || px >= t.Width || py < 0 || py >= t.Height {
		return
	}
	off := (py*t.Width + px) * 4
	t.Data[off] = c.R
	t.Data[off+1] = c.G
	t.Data[off+2] = c.B
	t.Data[off+3] = c.A
}

// At returns the color at tile-local pixel (px, py).
func (t *Tile) At(px, py int) color.RGBA {
	if px < 0 || px >= t.Width || py < 0 || py >= t.Height {
		return color.RGBA{}
	}
	off := (py*t.Width + px) * 4
	return color.RGBA{R: t.Data[off], G: t.Data[off+1], B: t.Data[off+2], A: t.Data[off+3]}
}

// Reset zeroes the tile's pixels.
func (t *Tile) Reset() {
	clear(t.Data)
}
