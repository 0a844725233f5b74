package session

import (
	"strings"
	"testing"

	"github.com/wfunc/killzone/models"
)

func TestNewSession(t *testing.T) {
	sess := NewSession()
	if sess.ID == "" {
		t.Fatal("NewSession should assign an id")
	}
	if sess.Phase() != models.PhaseInit {
		t.Fatalf("Expected phase init, got %s", sess.Phase())
	}
	if sess.Connected() || sess.Rejoining() {
		t.Fatal("a new session is neither connected nor rejoining")
	}
	if other := NewSession(); other.ID == sess.ID {
		t.Fatal("session ids should be unique")
	}
}

func TestSession_Flags(t *testing.T) {
	sess := NewSession()

	sess.SetConnected(true)
	sess.SetRejoining(true)
	sess.SetPhase(models.PhasePlaying)

	if !sess.Connected() || !sess.Rejoining() || sess.Phase() != models.PhasePlaying {
		t.Fatal("flags were not stored")
	}

	before := sess.LastActive
	sess.Touch()
	if sess.LastActive.Before(before) {
		t.Error("Touch should advance LastActive")
	}
}

func TestSession_FailTruncates(t *testing.T) {
	sess := NewSession()
	sess.Fail(strings.Repeat("e", 300))
	if len(sess.Err()) != maxErrLen {
		t.Errorf("Expected error text capped at %d, got %d", maxErrLen, len(sess.Err()))
	}
}
