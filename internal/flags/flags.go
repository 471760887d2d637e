// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package flags provides feature gating for optional engine behavior.
//
// Resolution order for a flag:
//  1. runtime override set via SetFlag (survives until ClearFlag or TTL)
//  2. FEATURE_<NAME> environment variable ("true"/"false", any case)
//  3. compiled-in default
package flags

import (
	"os"
	"strings"
	"sync"
	"time"
)

// Flag names.
const (
	SimilarityCaching    = "similarity_caching"
	ContentFiltering     = "content_based_filtering"
	DeepCutDiscovery     = "deep_cut_discovery"
	DiversityReranking   = "diversity_reranking"
	TrendingSource       = "trending_source"
	CollaborativeSource  = "collaborative_source"
	RecommendationLogger = "recommendation_logging"
)

// defaults are the compiled-in flag values. content_based_filtering
// ships off until the feature catalog has enough coverage to make the
// content source useful on its own.
var defaults = map[string]bool{
	SimilarityCaching:    true,
	ContentFiltering:     false,
	DeepCutDiscovery:     true,
	DiversityReranking:   true,
	TrendingSource:       true,
	CollaborativeSource:  false,
	RecommendationLogger: true,
}

// overrideTTL bounds how long a runtime override lives without being
// refreshed.
const overrideTTL = time.Hour

type override struct {
	enabled   bool
	expiresAt time.Time
}

// Flags resolves feature flags with runtime overrides.
type Flags struct {
	mu        sync.RWMutex
	overrides map[string]override
}

// New creates a flag resolver with no runtime overrides.
func New() *Flags {
	return &Flags{overrides: make(map[string]override)}
}

// IsEnabled reports whether the named flag is on. Unknown flags are
// off.
func (f *Flags) IsEnabled(name string) bool {
	f.mu.RLock()
	o, ok := f.overrides[name]
	f.mu.RUnlock()
	if ok && time.Now().Before(o.expiresAt) {
		return o.enabled
	}

	if v, ok := envValue(name); ok {
		return v
	}

	return defaults[name]
}

// SetFlag installs a runtime override for the named flag.
func (f *Flags) SetFlag(name string, enabled bool) {
	f.mu.Lock()
	f.overrides[name] = override{
		enabled:   enabled,
		expiresAt: time.Now().Add(overrideTTL),
	}
	f.mu.Unlock()
}

// ClearFlag removes a runtime override, reverting to env/default
// resolution.
func (f *Flags) ClearFlag(name string) {
	f.mu.Lock()
	delete(f.overrides, name)
	f.mu.Unlock()
}

// All returns the resolved state of every known flag.
func (f *Flags) All() map[string]bool {
	out := make(map[string]bool, len(defaults))
	for name := range defaults {
		out[name] = f.IsEnabled(name)
	}
	return out
}

// envValue checks the FEATURE_<NAME> environment variable.
func envValue(name string) (bool, bool) {
	raw, ok := os.LookupEnv("FEATURE_" + strings.ToUpper(name))
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}
