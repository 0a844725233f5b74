package codec

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/wfunc/killzone/models"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *TextCodec {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewTextCodec(srv.URL, srv.Client(), time.Second)
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestTextCodec_HealthCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"status":"healthy"}`)
	})
	c := newTestServer(t, mux)
	if !c.HealthCheck(context.Background()) {
		t.Fatal("expected healthy")
	}

	unhealthy := http.NewServeMux()
	unhealthy.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"status":"starting"}`)
	})
	if newTestServer(t, unhealthy).HealthCheck(context.Background()) {
		t.Fatal("status other than healthy should fail")
	}

	down := NewTextCodec("http://127.0.0.1:1", nil, 200*time.Millisecond)
	if down.HealthCheck(context.Background()) {
		t.Fatal("unreachable server should fail")
	}
}

func TestTextCodec_Join(t *testing.T) {
	var gotName string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/player/join", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotName = body["name"]
		reply(w, http.StatusOK, `{"id":"p1","x":5,"y":5,"health":100}`)
	})
	c := newTestServer(t, mux)

	res, err := c.Join(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if gotName != "alice" {
		t.Errorf("server saw name %q", gotName)
	}
	p := res.Player
	if p.ID != "p1" || p.Position != (models.Position{X: 5, Y: 5}) || p.Health != 100 {
		t.Fatalf("unexpected player %+v", p)
	}
	if p.Name != "alice" || p.Kind != models.KindLocalPlayer {
		t.Fatalf("unexpected name/kind %+v", p)
	}
}

func TestTextCodec_JoinDefaultsAndRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/player/join", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["name"] {
		case "bad":
			reply(w, http.StatusBadRequest, `{"success":false,"error":"Name taken"}`)
		case "broken":
			reply(w, http.StatusOK, `{"success":true,"id":"p2"}`)
		default:
			reply(w, http.StatusOK, `{"success":true,"id":"p3","x":"1","y":2,"version":"2.0.1"}`)
		}
	})
	c := newTestServer(t, mux)

	if _, err := c.Join(context.Background(), "bad"); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if _, err := c.Join(context.Background(), "broken"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	res, err := c.Join(context.Background(), "ok")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if res.Player.Health != 100 {
		t.Errorf("health should default to 100, got %d", res.Player.Health)
	}
	if res.ServerVersion != "2.0.1" {
		t.Errorf("version = %q", res.ServerVersion)
	}
}

func TestTextCodec_MoveNoCollision(t *testing.T) {
	var gotDir, gotPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/player/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotDir = body["direction"]
		reply(w, http.StatusOK, `{"x":5,"y":4,"collision":false}`)
	})
	c := newTestServer(t, mux)

	res, err := c.Move(context.Background(), "p1", models.DirUp)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if gotPath != "/api/player/p1/move" || gotDir != "up" {
		t.Fatalf("request was %s %q", gotPath, gotDir)
	}
	if res.Collision || len(res.Messages) != 0 || res.LoserID != "" {
		t.Fatalf("expected no combat data, got %+v", res)
	}
	if res.Position != (models.Position{X: 5, Y: 4}) {
		t.Fatalf("position = %+v", res.Position)
	}
}

func TestTextCodec_MoveCollision(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/player/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"x":6,"y":5,"collision":true,"messages":["A hits B","B dies","3","4","5"],"finalLoserId":"p1"}`)
	})
	c := newTestServer(t, mux)

	res, err := c.Move(context.Background(), "p1", models.DirRight)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if res.Position != (models.Position{X: 6, Y: 5}) || !res.Collision {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Messages) != models.MaxMessages || res.Messages[0] != "A hits B" {
		t.Fatalf("messages = %v", res.Messages)
	}
	if res.LoserID != "p1" {
		t.Fatalf("loser = %q", res.LoserID)
	}
}

func TestTextCodec_MoveNestedReply(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/player/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"success":true,"newPos":{"x":2,"y":3},"collision":true,"combatResult":{"messages":["hit"],"finalLoserId":"m7"}}`)
	})
	c := newTestServer(t, mux)

	res, err := c.Move(context.Background(), "p1", models.DirLeft)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if res.Position != (models.Position{X: 2, Y: 3}) || res.LoserID != "m7" || len(res.Messages) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTextCodec_MovePlayerNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/player/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusNotFound, `{"error":"Player not found"}`)
	})
	c := newTestServer(t, mux)

	_, err := c.Move(context.Background(), "p1", models.DirDown)
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestTextCodec_FetchWorld(t *testing.T) {
	var gotPlayer string
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/world/state", func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotPlayer = r.URL.Query().Get("playerId")
		players := `[{"id":"p1","x":5,"y":5,"type":"player"},{"id":"p2","x":1,"y":1,"type":"player"},{"id":"m1","x":2,"y":2,"isHunter":true},{"id":"m2","x":3,"y":3,"health":"40"}]`
		reply(w, http.StatusOK, `{"width":40,"height":20,"ticks":77,"lastKillMessage":"p2 killed m9","level":"arena","walls":[{"x":0,"y":0},{"x":1,"y":0}],"players":`+players+`}`)
	})
	c := newTestServer(t, mux)

	snap, err := c.FetchWorld(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchWorld failed: %v", err)
	}
	if gotPlayer != "p1" {
		t.Errorf("playerId = %q", gotPlayer)
	}
	if !snap.HasSize || snap.Width != 40 || snap.Height != 20 || snap.Ticks != 77 {
		t.Fatalf("metadata = %+v", snap)
	}
	if snap.Message != "p2 killed m9" || snap.Level != "arena" {
		t.Fatalf("message/level = %q/%q", snap.Message, snap.Level)
	}
	if !snap.WallsIncluded || len(snap.Walls) != 2 {
		t.Fatalf("walls = %v", snap.Walls)
	}
	if len(snap.Entities) != 4 || !snap.EnumeratesIDs {
		t.Fatalf("entities = %+v", snap.Entities)
	}
	kinds := []models.Kind{models.KindOtherPlayer, models.KindOtherPlayer, models.KindHunter, models.KindMob}
	for i, k := range kinds {
		if snap.Entities[i].Kind != k {
			t.Errorf("entity %d kind = %v, want %v", i, snap.Entities[i].Kind, k)
		}
	}
	if snap.Entities[0].Health != 100 || snap.Entities[3].Health != 40 {
		t.Errorf("health parse: %+v", snap.Entities)
	}

	// same level: walls are not re-read
	snap, err = c.FetchWorld(context.Background(), "p1")
	if err != nil {
		t.Fatalf("second FetchWorld failed: %v", err)
	}
	if snap.WallsIncluded {
		t.Error("walls should be skipped while the level is unchanged")
	}
	if calls != 2 {
		t.Errorf("calls = %d", calls)
	}
}

func TestTextCodec_FetchWorldManyEntities(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/world/state", func(w http.ResponseWriter, r *http.Request) {
		players := make([]map[string]any, 12)
		for i := range players {
			players[i] = map[string]any{"id": "m" + strconv.Itoa(i), "x": i, "y": 1}
		}
		data, _ := json.Marshal(map[string]any{"width": 40, "height": 20, "ticks": 1, "players": players})
		reply(w, http.StatusOK, string(data))
	})
	c := newTestServer(t, mux)

	snap, err := c.FetchWorld(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchWorld failed: %v", err)
	}
	if len(snap.Entities) != 12 {
		t.Fatalf("codec should report every entity, got %d", len(snap.Entities))
	}
}

func TestTextCodec_FetchWorldMalformed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/world/state", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusInternalServerError, `oops`)
	})
	c := newTestServer(t, mux)
	if _, err := c.FetchWorld(context.Background(), ""); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestTextCodec_Leave(t *testing.T) {
	var gotID string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/player/leave", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotID = body["id"]
		reply(w, http.StatusOK, `{"success":true}`)
	})
	c := newTestServer(t, mux)
	if !c.Leave(context.Background(), "p1") || gotID != "p1" {
		t.Fatalf("leave failed, server saw %q", gotID)
	}
}
