package store

import (
	"testing"

	"edadash/models"
)

func result(rows int) *models.AnalysisResult {
	return &models.AnalysisResult{Overview: models.Overview{Rows: rows}}
}

func TestStore_StartsEmpty(t *testing.T) {
	s := New()
	if s.Current() != nil {
		t.Error("Expected empty store at session start")
	}
}

func TestStore_InstallReplacesWholesale(t *testing.T) {
	s := New()

	genA := s.Begin()
	if !s.Install(result(10), genA) {
		t.Fatal("Expected first install to succeed")
	}
	if s.Current().Overview.Rows != 10 {
		t.Errorf("Expected rows=10, got %d", s.Current().Overview.Rows)
	}

	genB := s.Begin()
	if !s.Install(result(20), genB) {
		t.Fatal("Expected second install to succeed")
	}
	if s.Current().Overview.Rows != 20 {
		t.Errorf("Expected last writer to win, got rows=%d", s.Current().Overview.Rows)
	}
}

func TestStore_StaleGenerationDiscarded(t *testing.T) {
	s := New()

	slowGen := s.Begin()
	fastGen := s.Begin()

	// The later request resolves first.
	if !s.Install(result(20), fastGen) {
		t.Fatal("Expected newer generation to install")
	}
	// The slow earlier request resolving afterwards must not overwrite.
	if s.Install(result(10), slowGen) {
		t.Error("Expected stale generation to be discarded")
	}
	if s.Current().Overview.Rows != 20 {
		t.Errorf("Expected newer result to survive, got rows=%d", s.Current().Overview.Rows)
	}
}

func TestStore_ReinstallSameGeneration(t *testing.T) {
	s := New()
	gen := s.Begin()
	if !s.Install(result(1), gen) {
		t.Fatal("Expected install to succeed")
	}
	// Idempotent re-install of the current generation is allowed.
	if !s.Install(result(1), gen) {
		t.Error("Expected current generation to remain installable")
	}
}
