package parallel

import "image"

// TileGrid divides a frame into 64x64 tiles stored row-major in a flat
// slice: index = ty * tilesX + tx.
//
// Thread safety: TileGrid is NOT thread-safe. Distinct tiles may be written
// by distinct jobs concurrently; Resize and CompositeTile on the same tile
// must not overlap with rendering.
type TileGrid struct {
	tiles  []*Tile
	tilesX int
	tilesY int
	width  int
	height int
}

// NewTileGrid creates a tile grid covering a width x height frame.
// Non-positive dimensions produce an empty grid.
func NewTileGrid(width, height int) *TileGrid {
	g := &TileGrid{}
	g.Resize(width, height)
	return g
}

// Resize changes the grid dimensions, reallocating tiles as needed.
// If dimensions haven't changed, this is a no-op.
func (g *TileGrid) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		g.tiles = nil
		g.tilesX, g.tilesY = 0, 0
		g.width, g.height = 0, 0
		return
	}
	if g.width == width && g.height == height {
		return
	}

	g.tilesX = (width + TileWidth - 1) / TileWidth
	g.tilesY = (height + TileHeight - 1) / TileHeight
	g.width = width
	g.height = height
	g.tiles = make([]*Tile, g.tilesX*g.tilesY)

	for ty := range g.tilesY {
		for tx := range g.tilesX {
			// Right and bottom edge tiles may be smaller.
			tileW := min(TileWidth, width-tx*TileWidth)
			tileH := min(TileHeight, height-ty*TileHeight)
			g.tiles[ty*g.tilesX+tx] = &Tile{
				X:      tx,
				Y:      ty,
				Width:  tileW,
				Height: tileH,
				Data:   make([]byte, tileW*tileH*4),
			}
		}
	}
}

// TileAt returns the tile at tile coordinates (tx, ty).
// Returns nil if coordinates are out of bounds.
func (g *TileGrid) TileAt(tx, ty int) *Tile {
	if tx < 0 || tx >= g.tilesX || ty < 0 || ty >= g.tilesY {
		return nil
	}
	return g.tiles[ty*g.tilesX+tx]
}

// TileAtPixel returns the tile containing the frame pixel (px, py).
// Returns nil if coordinates are out of bounds.
func (g *TileGrid) TileAtPixel(px, py int) *Tile {
	if px < 0 || px >= g.width || py < 0 || py >= g.height {
		return nil
	}
	return g.tiles[(py/TileHeight)*g.tilesX+px/TileWidth]
}

// AllTiles returns all tiles in row-major order.
// The returned slice should not be modified.
func (g *TileGrid) AllTiles() []*Tile {
	return g.tiles
}

// TileCount returns the total number of tiles in the grid.
func (g *TileGrid) TileCount() int {
	return len(g.tiles)
}

// TilesX returns the number of tiles horizontally.
func (g *TileGrid) TilesX() int {
	return g.tilesX
}

// TilesY returns the number of tiles vertically.
func (g *TileGrid) TilesY() int {
	return g.tilesY
}

// Width returns the frame width in pixels.
func (g *TileGrid) Width() int {
	return g.width
}

// Height returns the frame height in pixels.
func (g *TileGrid) Height() int {
	return g.height
}

// CompositeTile copies one tile into dst at its frame position.
// dst must be at least as large as the grid. Distinct tiles may be
// composited concurrently since they cover disjoint rows of dst.
func (g *TileGrid) CompositeTile(t *Tile, dst *image.RGBA) {
	tileX, tileY, _, _ := t.Bounds()
	srcStride := t.Stride()

	for row := range t.Height {
		y := tileY + row
		if y >= dst.Rect.Dy() {
			break
		}
		dstOff := y*dst.Stride + tileX*4
		n := min(srcStride, dst.Stride-tileX*4)
		if n <= 0 {
			return
		}
		copy(dst.Pix[dstOff:dstOff+n], t.Data[row*srcStride:row*srcStride+n])
	}
}
