package render

import (
	"testing"

	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/world"
)

func baseView() world.View {
	return world.View{
		Width:    40,
		Height:   20,
		HasLocal: true,
		Local:    models.Entity{ID: "p1", Position: models.Position{X: 5, Y: 5}, Kind: models.KindLocalPlayer},
		Others: []models.Entity{
			{ID: "p2", Position: models.Position{X: 1, Y: 1}, Kind: models.KindOtherPlayer},
			{ID: "m1", Position: models.Position{X: 2, Y: 2}, Kind: models.KindHunter},
			{ID: "m2", Position: models.Position{X: 3, Y: 3}, Kind: models.KindMob},
		},
		Walls: []models.Wall{{X: 0, Y: 0}},
	}
}

func hasFill(ops []Op) bool {
	for _, op := range ops {
		if op.Kind == OpFill {
			return true
		}
	}
	return false
}

func TestReconciler_FullRedrawOrder(t *testing.T) {
	r := NewReconciler(Options{RedrawOnCountChange: true})
	ops := r.Render(baseView())

	if len(ops) != 6 {
		t.Fatalf("Expected fill, wall, 3 others and the local player, got %d ops: %+v", len(ops), ops)
	}
	if ops[0].Kind != OpFill || ops[0].Width != 40 || ops[0].Height != 20 || ops[0].Glyph != GlyphFloor {
		t.Fatalf("first op should clear the field, got %+v", ops[0])
	}
	if ops[1].Glyph != GlyphWall {
		t.Errorf("walls come before entities, got %+v", ops[1])
	}
	want := []rune{GlyphPlayer, GlyphHunter, GlyphMob, GlyphLocal}
	for i, g := range want {
		if ops[2+i].Glyph != g {
			t.Errorf("op %d glyph = %q, want %q", 2+i, ops[2+i].Glyph, g)
		}
	}
	if last := ops[len(ops)-1]; last.X != 5 || last.Y != 5 || last.Layer != LayerLocal {
		t.Errorf("local player must be drawn last, got %+v", last)
	}
}

func TestReconciler_Idempotent(t *testing.T) {
	r := NewReconciler(Options{RedrawOnCountChange: true})
	v := baseView()
	r.Render(v)
	if ops := r.Render(v); len(ops) != 0 {
		t.Fatalf("unchanged model should produce no ops, got %+v", ops)
	}
}

func TestReconciler_ForcedRefresh(t *testing.T) {
	r := NewReconciler(Options{RedrawOnCountChange: true})
	v := baseView()
	r.Render(v)

	r.RequestFullRedraw()
	ops := r.Render(v)
	if !hasFill(ops) {
		t.Fatalf("forced refresh should take the full path, got %+v", ops)
	}
	if r.Stats().Full != 2 {
		t.Fatalf("Expected 2 full redraws, got %d", r.Stats().Full)
	}
	if ops := r.Render(v); len(ops) != 0 {
		t.Fatal("refresh request should be consumed")
	}
}

func TestReconciler_IncrementalLocalMove(t *testing.T) {
	r := NewReconciler(Options{RedrawOnCountChange: true})
	v := baseView()
	r.Render(v)

	v.Local.Position = models.Position{X: 6, Y: 5}
	ops := r.Render(v)
	if len(ops) != 2 {
		t.Fatalf("Expected erase and draw, got %+v", ops)
	}
	if ops[0].X != 5 || ops[0].Glyph != GlyphFloor {
		t.Errorf("old cell should be erased first, got %+v", ops[0])
	}
	if ops[1].X != 6 || ops[1].Glyph != GlyphLocal {
		t.Errorf("new cell should hold the player, got %+v", ops[1])
	}
}

func TestReconciler_IncrementalOtherMoveAndSwap(t *testing.T) {
	r := NewReconciler(Options{RedrawOnCountChange: true})
	v := baseView()
	r.Render(v)

	// m2 steps onto the cell p2 leaves
	v.Others = []models.Entity{
		{ID: "p2", Position: models.Position{X: 1, Y: 2}, Kind: models.KindOtherPlayer},
		v.Others[1],
		{ID: "m2", Position: models.Position{X: 1, Y: 1}, Kind: models.KindMob},
	}
	ops := r.Render(v)

	var eraseAt3, drawAt11, drawAt12 bool
	for _, op := range ops {
		switch {
		case op.X == 1 && op.Y == 1:
			if op.Glyph != GlyphMob {
				t.Errorf("cell (1,1) should end with the mob, got %q", op.Glyph)
			}
			drawAt11 = true
		case op.X == 3 && op.Y == 3:
			eraseAt3 = op.Glyph == GlyphFloor
		case op.X == 1 && op.Y == 2:
			drawAt12 = op.Glyph == GlyphPlayer
		}
	}
	if !eraseAt3 || !drawAt11 || !drawAt12 {
		t.Fatalf("unexpected ops %+v", ops)
	}
}

func TestReconciler_CountChangeRedraws(t *testing.T) {
	r := NewReconciler(Options{RedrawOnCountChange: true})
	v := baseView()
	r.Render(v)

	v.Others = v.Others[:2]
	if ops := r.Render(v); !hasFill(ops) {
		t.Fatalf("count change should trigger a full redraw, got %+v", ops)
	}
}

func TestReconciler_DepartedSlotsErased(t *testing.T) {
	r := NewReconciler(Options{})
	v := baseView()
	r.Render(v)

	v.Others = v.Others[:1]
	ops := r.Render(v)
	if hasFill(ops) {
		t.Fatal("count trigger is disabled, expected incremental")
	}
	if len(ops) != 2 {
		t.Fatalf("Expected two departed cells erased, got %+v", ops)
	}
	for _, op := range ops {
		if op.Glyph != GlyphFloor {
			t.Errorf("departed slot should be floor, got %+v", op)
		}
	}

	// slots were invalidated, so an entity reappearing is drawn
	v.Others = append(v.Others, models.Entity{ID: "m9", Position: models.Position{X: 2, Y: 2}, Kind: models.KindMob})
	ops = r.Render(v)
	if len(ops) != 1 || ops[0].Glyph != GlyphMob {
		t.Fatalf("Expected the new entity drawn, got %+v", ops)
	}
}

func TestReconciler_OffFieldTracked(t *testing.T) {
	r := NewReconciler(Options{})
	v := baseView()
	r.Render(v)

	v.Others[0].Position = models.Unknown
	ops := r.Render(v)
	if len(ops) != 1 || ops[0].X != 1 || ops[0].Glyph != GlyphFloor {
		t.Fatalf("moving off the field should only erase, got %+v", ops)
	}
	if ops := r.Render(v); len(ops) != 0 {
		t.Fatalf("off-field position should be tracked, got %+v", ops)
	}
}

func TestReconciler_NoLocalPlayer(t *testing.T) {
	r := NewReconciler(Options{})
	v := baseView()
	v.HasLocal = false
	if ops := r.Render(v); ops != nil {
		t.Fatal("no local player, no ops")
	}
	v.HasLocal = true
	v.Local.Position = models.Unknown
	if ops := r.Render(v); ops != nil {
		t.Fatal("invalid local position, no ops")
	}
}

func TestReconciler_Invalidate(t *testing.T) {
	r := NewReconciler(Options{})
	v := baseView()
	r.Render(v)
	r.Invalidate()
	if ops := r.Render(v); !hasFill(ops) {
		t.Fatal("Invalidate should force a full redraw")
	}
}

func TestWallGlyph(t *testing.T) {
	walls := map[models.Position]bool{}
	for _, p := range []models.Position{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 3}} {
		walls[p] = true
	}
	cases := []struct {
		at   models.Position
		want rune
	}{
		{models.Position{X: 1, Y: 1}, GlyphTopLeft},
		{models.Position{X: 2, Y: 1}, GlyphHorizontal},
		{models.Position{X: 1, Y: 2}, GlyphVertical},
		{models.Position{X: 3, Y: 1}, GlyphWall},
	}
	for _, c := range cases {
		if got := WallGlyph(c.at, walls); got != c.want {
			t.Errorf("WallGlyph(%v) = %q, want %q", c.at, got, c.want)
		}
	}

	corner := map[models.Position]bool{{X: 0, Y: 0}: true, {X: 1, Y: 0}: true, {X: 1, Y: 1}: true}
	if got := WallGlyph(models.Position{X: 1, Y: 0}, corner); got != GlyphTopRight {
		t.Errorf("south+west = %q", got)
	}
	if got := WallGlyph(models.Position{X: 1, Y: 1}, corner); got != GlyphWall {
		t.Errorf("single north neighbour = %q", got)
	}
}

// paint applies ops to a width x height grid the way the display does.
func paint(grid [][]rune, ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpFill:
			for y := op.Y; y < op.Y+op.Height && y < len(grid); y++ {
				for x := op.X; x < op.X+op.Width && x < len(grid[y]); x++ {
					grid[y][x] = op.Glyph
				}
			}
		case OpPut:
			grid[op.Y][op.X] = op.Glyph
		}
	}
}

func TestReconciler_ShrinkClearsOldField(t *testing.T) {
	grid := make([][]rune, 20)
	for y := range grid {
		grid[y] = make([]rune, 40)
	}

	r := NewReconciler(Options{RedrawOnCountChange: true})
	v := baseView()
	v.Others = []models.Entity{{ID: "p2", Position: models.Position{X: 35, Y: 18}, Kind: models.KindOtherPlayer}}
	paint(grid, r.Render(v))
	if grid[18][35] != GlyphPlayer {
		t.Fatalf("setup: cell (35,18) = %q", grid[18][35])
	}

	v.Width, v.Height = 30, 15
	v.Others = nil
	ops := r.Render(v)
	if ops[0].Kind != OpFill || ops[0].Glyph != GlyphBlank || ops[0].Width != 40 || ops[0].Height != 20 {
		t.Fatalf("shrink should first blank the old field, got %+v", ops[0])
	}
	paint(grid, ops)

	if grid[18][35] != GlyphBlank || grid[14][39] != GlyphBlank {
		t.Fatalf("cells outside the new bounds kept old glyphs: %q %q", grid[18][35], grid[14][39])
	}
	if grid[14][29] != GlyphFloor || grid[5][5] != GlyphLocal {
		t.Fatalf("new field not painted: %q %q", grid[14][29], grid[5][5])
	}

	// growing back only needs the floor fill
	v.Width, v.Height = 40, 20
	if ops := r.Render(v); ops[0].Glyph != GlyphFloor {
		t.Fatalf("growth should not blank, got %+v", ops[0])
	}
}
