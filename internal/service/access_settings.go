package service

import (
	"sync"
	"time"

	"github.com/shred03/filestore-bot/internal/config"
)

// AccessSettings holds the runtime toggles and limits of the gating
// subsystems. It is injected into the services that need it instead of being
// process-global state, so independent pipelines can be built in tests.
// Setters return the new effective value for the admin surface to echo.
type AccessSettings struct {
	mu                  sync.RWMutex
	verificationEnabled bool
	limitEnabled        bool
	fileLimit           int
	verificationWindow  time.Duration
	resetWindow         time.Duration
}

// NewAccessSettings builds the settings from the static configuration,
// clamping values to sane minimums.
func NewAccessSettings(cfg config.AccessConfig) *AccessSettings {
	fileLimit := cfg.FileLimit
	if fileLimit < 1 {
		fileLimit = 10
	}
	verificationHours := cfg.VerificationHours
	if verificationHours < 1 {
		verificationHours = 12
	}
	resetHours := cfg.ResetHours
	if resetHours < 1 {
		resetHours = 24
	}
	return &AccessSettings{
		verificationEnabled: cfg.VerificationEnabled,
		limitEnabled:        cfg.LimitEnabled,
		fileLimit:           fileLimit,
		verificationWindow:  time.Duration(verificationHours) * time.Hour,
		resetWindow:         time.Duration(resetHours) * time.Hour,
	}
}

// ToggleVerification flips the verification subsystem and returns the new state.
func (s *AccessSettings) ToggleVerification() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verificationEnabled = !s.verificationEnabled
	return s.verificationEnabled
}

// ToggleLimit flips the retrieval limit subsystem and returns the new state.
func (s *AccessSettings) ToggleLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limitEnabled = !s.limitEnabled
	return s.limitEnabled
}

// SetFileLimit sets the per-cycle file limit, clamped to >= 1, and returns
// the effective value. Takes effect for all future evaluations.
func (s *AccessSettings) SetFileLimit(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 {
		n = 1
	}
	s.fileLimit = n
	return s.fileLimit
}

func (s *AccessSettings) VerificationEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verificationEnabled
}

func (s *AccessSettings) LimitEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limitEnabled
}

func (s *AccessSettings) FileLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileLimit
}

func (s *AccessSettings) VerificationWindow() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verificationWindow
}

func (s *AccessSettings) ResetWindow() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resetWindow
}
