package render

import (
	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/world"
)

// Line-drawing glyphs for connected walls.
const (
	GlyphVertical    = '│'
	GlyphHorizontal  = '─'
	GlyphTopLeft     = '┌'
	GlyphTopRight    = '┐'
	GlyphBottomLeft  = '└'
	GlyphBottomRight = '┘'
)

func wallSet(v world.View) map[models.Position]bool {
	set := make(map[models.Position]bool, len(v.Walls))
	for _, w := range v.Walls {
		if w.In(v.Width, v.Height) {
			set[w] = true
		}
	}
	return set
}

func (r *Reconciler) wallCell(w models.Wall, walls map[models.Position]bool) cell {
	if !r.opts.WallGlyphs {
		return cell{glyph: GlyphWall, layer: LayerWall}
	}
	return cell{glyph: WallGlyph(w, walls), layer: LayerWall}
}

// WallGlyph picks the glyph for the wall at w from its four neighbours.
func WallGlyph(w models.Wall, walls map[models.Position]bool) rune {
	has := func(dx, dy int) bool {
		x, y := int(w.X)+dx, int(w.Y)+dy
		if x < 0 || y < 0 || x >= models.InvalidCoord || y >= models.InvalidCoord {
			return false
		}
		return walls[models.Position{X: uint8(x), Y: uint8(y)}]
	}
	n, s, e, west := has(0, -1), has(0, 1), has(1, 0), has(-1, 0)

	switch {
	case n && s:
		return GlyphVertical
	case e && west:
		return GlyphHorizontal
	case s && e:
		return GlyphTopLeft
	case s && west:
		return GlyphTopRight
	case n && e:
		return GlyphBottomLeft
	case n && west:
		return GlyphBottomRight
	}
	return GlyphWall
}
