// Package store holds the single current analysis result for a dashboard
// session. The result is replaced wholesale on each successful upload;
// readers get an immutable snapshot pointer and never see partial state.
package store

import (
	"sync"

	"edadash/models"
)

// ResultStore is the explicit home of the current analysis result. Handlers
// registered once at mount read from it instead of re-binding per upload.
//
// Each upload attempt claims a generation before its request is issued.
// Install rejects results whose generation is older than the newest claimed
// one, so a slow early request resolving after a faster later one cannot
// overwrite newer state.
type ResultStore struct {
	mu        sync.Mutex
	current   *models.AnalysisResult
	nextGen   uint64
	latestGen uint64
}

// New creates an empty store. Every session starts with no current result.
func New() *ResultStore {
	return &ResultStore{}
}

// Begin claims a generation for a new upload attempt. The returned value
// must be passed to Install with the attempt's result.
func (s *ResultStore) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGen++
	s.latestGen = s.nextGen
	return s.nextGen
}

// Install replaces the current result if gen is still the newest claimed
// generation. It reports whether the result was installed; a false return
// means a newer upload superseded this one and the result was discarded.
func (s *ResultStore) Install(result *models.AnalysisResult, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.latestGen {
		return false
	}
	s.current = result
	return true
}

// Current returns the current result, or nil before the first successful
// upload.
func (s *ResultStore) Current() *models.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
