// Package render turns the world model into the smallest set of cell
// writes that brings the screen up to date.
package render

import (
	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/world"
)

// Glyphs.
const (
	GlyphBlank  = ' '
	GlyphFloor  = '.'
	GlyphWall   = '#'
	GlyphLocal  = '@'
	GlyphPlayer = '#'
	GlyphHunter = '^'
	GlyphMob    = '*'
)

// Layer tells the display what a cell holds, so it can style it.
type Layer int

const (
	LayerFloor Layer = iota
	LayerWall
	LayerMob
	LayerHunter
	LayerPlayer
	LayerLocal
)

type OpKind int

const (
	// OpFill paints a Width x Height rectangle with one glyph.
	OpFill OpKind = iota
	// OpPut writes one cell.
	OpPut
)

// Op is one draw instruction in play-field coordinates.
type Op struct {
	Kind          OpKind
	X, Y          int
	Width, Height int
	Glyph         rune
	Layer         Layer
}

func put(p models.Position, c cell) Op {
	return Op{Kind: OpPut, X: int(p.X), Y: int(p.Y), Glyph: c.glyph, Layer: c.layer}
}

type cell struct {
	glyph rune
	layer Layer
}

var floor = cell{glyph: GlyphFloor, layer: LayerFloor}

func entityCell(k models.Kind) cell {
	switch k {
	case models.KindLocalPlayer:
		return cell{glyph: GlyphLocal, layer: LayerLocal}
	case models.KindOtherPlayer:
		return cell{glyph: GlyphPlayer, layer: LayerPlayer}
	case models.KindHunter:
		return cell{glyph: GlyphHunter, layer: LayerHunter}
	}
	return cell{glyph: GlyphMob, layer: LayerMob}
}

type Options struct {
	// WallGlyphs replaces the uniform wall marker with line-drawing
	// glyphs picked from each wall's neighbours.
	WallGlyphs bool
	// RedrawOnCountChange forces a full redraw whenever the number of
	// other entities differs from the last full redraw.
	RedrawOnCountChange bool
}

// Stats counts render passes.
type Stats struct {
	Full        int
	Incremental int
	Ops         int
}

// Reconciler owns the record of what is on screen. It is not safe for
// concurrent use.
type Reconciler struct {
	opts Options

	rendered  bool
	forceFull bool

	width, height int
	lastLocal     models.Position
	slots         [models.MaxOthers]models.Position
	// lastCount is the number of slots drawn by the previous pass,
	// fullCount the number at the last full redraw.
	lastCount int
	fullCount int

	stats Stats
}

func NewReconciler(opts Options) *Reconciler {
	r := &Reconciler{opts: opts}
	r.forget()
	return r
}

func (r *Reconciler) forget() {
	r.rendered = false
	r.lastLocal = models.Unknown
	for i := range r.slots {
		r.slots[i] = models.Unknown
	}
	r.lastCount = 0
	r.fullCount = 0
}

// RequestFullRedraw makes the next Render repaint the whole field.
func (r *Reconciler) RequestFullRedraw() {
	r.forceFull = true
}

// Invalidate forgets everything on screen, as after a dialog replaced it.
func (r *Reconciler) Invalidate() {
	r.forget()
}

func (r *Reconciler) Stats() Stats {
	return r.stats
}

// Render returns the ops that bring the screen from the last rendered
// state to v. It emits nothing while the local player has no valid
// position.
func (r *Reconciler) Render(v world.View) []Op {
	if !v.HasLocal || v.Local.Position.X == models.InvalidCoord || v.Local.Position.Y == models.InvalidCoord {
		return nil
	}

	others := v.Others
	if len(others) > models.MaxOthers {
		others = others[:models.MaxOthers]
	}

	full := !r.rendered || r.forceFull ||
		v.Width != r.width || v.Height != r.height ||
		(r.opts.RedrawOnCountChange && len(others) != r.fullCount)

	var ops []Op
	if full {
		ops = r.full(v, others)
		r.stats.Full++
	} else {
		ops = r.incremental(v, others)
		if len(ops) > 0 {
			r.stats.Incremental++
		}
	}
	r.stats.Ops += len(ops)
	return ops
}

func (r *Reconciler) full(v world.View, others []models.Entity) []Op {
	ops := make([]Op, 0, 3+len(v.Walls)+len(others))
	// a shrunk world leaves old cells outside the new bounds
	if r.width > v.Width || r.height > v.Height {
		ops = append(ops, Op{Kind: OpFill, Width: max(r.width, v.Width), Height: max(r.height, v.Height), Glyph: GlyphBlank, Layer: LayerFloor})
	}
	ops = append(ops, Op{Kind: OpFill, Width: v.Width, Height: v.Height, Glyph: GlyphFloor, Layer: LayerFloor})

	walls := wallSet(v)
	for _, w := range v.Walls {
		if w.In(v.Width, v.Height) {
			ops = append(ops, put(w, r.wallCell(w, walls)))
		}
	}

	for i := range r.slots {
		r.slots[i] = models.Unknown
	}
	for i, e := range others {
		if e.Position.In(v.Width, v.Height) {
			ops = append(ops, put(e.Position, entityCell(e.Kind)))
		}
		r.slots[i] = e.Position
	}

	if v.Local.Position.In(v.Width, v.Height) {
		ops = append(ops, put(v.Local.Position, entityCell(models.KindLocalPlayer)))
	}

	r.lastLocal = v.Local.Position
	r.width, r.height = v.Width, v.Height
	r.lastCount = len(others)
	r.fullCount = len(others)
	r.rendered = true
	r.forceFull = false
	return ops
}

func (r *Reconciler) incremental(v world.View, others []models.Entity) []Op {
	in := func(p models.Position) bool { return p.In(v.Width, v.Height) }

	var erase, draw []models.Position
	localMoved := false

	if v.Local.Position != r.lastLocal {
		if in(r.lastLocal) {
			erase = append(erase, r.lastLocal)
		}
		localMoved = true
		r.lastLocal = v.Local.Position
	}

	for i, e := range others {
		old := r.slots[i]
		if e.Position == old {
			continue
		}
		if in(old) {
			erase = append(erase, old)
		}
		if in(e.Position) {
			draw = append(draw, e.Position)
		}
		// tracked even when off the field
		r.slots[i] = e.Position
	}

	// entities that left the set
	for i := len(others); i < r.lastCount; i++ {
		if in(r.slots[i]) {
			erase = append(erase, r.slots[i])
		}
		r.slots[i] = models.Unknown
	}
	r.lastCount = len(others)

	if localMoved && in(v.Local.Position) {
		draw = append(draw, v.Local.Position)
	}
	if len(erase) == 0 && len(draw) == 0 {
		return nil
	}

	top := r.topCells(v, others)
	drawn := make(map[models.Position]bool, len(draw))
	for _, p := range draw {
		drawn[p] = true
	}

	ops := make([]Op, 0, len(erase)+len(draw))
	erased := make(map[models.Position]bool, len(erase))
	for _, p := range erase {
		if drawn[p] || erased[p] {
			continue
		}
		erased[p] = true
		c, ok := top[p]
		if !ok {
			c = floor
		}
		ops = append(ops, put(p, c))
	}

	emitted := make(map[models.Position]bool, len(draw))
	for _, p := range draw {
		if emitted[p] {
			continue
		}
		emitted[p] = true
		ops = append(ops, put(p, top[p]))
	}
	return ops
}

// topCells maps every occupied cell to what a full redraw would leave
// there: walls, then others in order, then the local player.
func (r *Reconciler) topCells(v world.View, others []models.Entity) map[models.Position]cell {
	top := make(map[models.Position]cell, len(v.Walls)+len(others)+1)
	walls := wallSet(v)
	for _, w := range v.Walls {
		top[w] = r.wallCell(w, walls)
	}
	for _, e := range others {
		top[e.Position] = entityCell(e.Kind)
	}
	top[v.Local.Position] = entityCell(models.KindLocalPlayer)
	return top
}
