package cadence

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"github.com/nullteam/toneengine/internal/metrics"
	"github.com/nullteam/toneengine/internal/waveform"
)

// defaultLanguage is the implicit language: names registered under it
// live in the unprefixed default table rather than under "lang/name".
const defaultLanguage = ""

// Registry stores Cadence Descriptors under two logical tables: a
// default (language-independent) table and a localized table keyed by
// "lang/name". Registration replaces rather than mutates any prior
// entry with the same canonical key, so concurrent readers never
// observe a partially updated Cadence.
type Registry struct {
	mu sync.RWMutex

	byKey   map[string]*Descriptor // canonical key -> descriptor (default + localized tables combined)
	alias   map[string]string      // alias -> canonical name
	oneshot map[string]*Descriptor // built-in oneshot table (DTMF digits etc.)

	defaultLang string // configured default language, if any

	cache   *waveform.Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithMetrics attaches a Metrics recorder; subsequent Register and
// Resolve calls report to it. Returns r for chaining.
func (r *Registry) WithMetrics(m *metrics.Metrics) *Registry {
	r.metrics = m
	return r
}

// NewRegistry builds a Registry pre-populated with the built-in
// cadence set, sharing waveform synthesis with cache.
func NewRegistry(cache *waveform.Cache, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		byKey:   make(map[string]*Descriptor),
		alias:   make(map[string]string),
		oneshot: make(map[string]*Descriptor),
		cache:   cache,
		logger:  logger,
	}
	if err := registerBuiltins(r, cache); err != nil {
		return nil, err
	}
	return r, nil
}

// SetDefaultLanguage configures the fallback language consulted by
// resolve when no explicit prefix is given.
func (r *Registry) SetDefaultLanguage(lang string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultLang = strings.ToLower(strings.TrimSpace(lang))
}

func canonicalKey(name, language string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" || language == defaultLanguage {
		return name
	}
	return language + "/" + name
}

// Register adds or replaces the cadence named name (under language,
// or the default table if language is empty) with c. An optional
// short alias can be supplied; pass "" for none. Replacement is a
// simple map reassignment under the write lock: prior Source
// instances already running against the old *Cadence keep it alive
// (Go's GC, not explicit refcounting, retires it).
func (r *Registry) Register(name, language, alias string, c *Cadence) {
	key := canonicalKey(name, language)
	d := &Descriptor{Name: key, Alias: alias, Cadence: c, RepeatAll: c.RepeatAll()}

	r.mu.Lock()
	_, replaced := r.byKey[key]
	r.byKey[key] = d
	if alias != "" {
		r.alias[strings.ToLower(alias)] = key
	}
	r.mu.Unlock()

	if replaced && r.metrics != nil {
		r.metrics.RecordCadenceReload()
	}
}

// registerOneshot adds d to the built-in oneshot table only (not the
// default/localized tables), used for single DTMF digits.
func (r *Registry) registerOneshot(name, alias string, c *Cadence) {
	d := &Descriptor{Name: name, Alias: alias, Cadence: c, RepeatAll: c.RepeatAll()}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oneshot[name] = d
	if alias != "" {
		r.alias[strings.ToLower(alias)] = name
	}
}

// Resolve implements resolve(request, prefix, oneshot) from spec.md
// 4.2: it normalizes request, searches prefix/request, then
// defaultLang/request, then the default table, then (if oneshot) the
// built-in oneshot table. It returns the matching Descriptor and the
// canonical name request was rewritten to, so callers can use the
// canonical name as a dedup key.
func (r *Registry) Resolve(request, prefix string, oneshot bool) (*Descriptor, string, bool) {
	request = strings.ToLower(strings.TrimSpace(request))
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if canon, ok := r.alias[request]; ok {
		request = canon
	}

	if prefix != "" && prefix != defaultLanguage {
		key := prefix + "/" + request
		if d, ok := r.byKey[key]; ok {
			r.recordLookup(true)
			return d, key, true
		}
	}
	if r.defaultLang != "" && r.defaultLang != prefix {
		key := r.defaultLang + "/" + request
		if d, ok := r.byKey[key]; ok {
			r.recordLookup(true)
			return d, key, true
		}
	}

	if d, ok := r.byKey[request]; ok {
		r.recordLookup(true)
		return d, request, true
	}

	if oneshot {
		if d, ok := r.oneshot[request]; ok {
			r.recordLookup(true)
			return d, request, true
		}
	}

	r.recordLookup(false)
	r.logSuggestion(request)
	return nil, request, false
}

func (r *Registry) recordLookup(hit bool) {
	if r.metrics != nil {
		r.metrics.RecordCadenceLookup(hit)
	}
}

// logSuggestion emits a best-effort "did you mean" hint at warn level
// when a lookup misses, using Jaro-Winkler similarity against the
// known canonical keys. Purely diagnostic: it never affects the
// resolve outcome.
func (r *Registry) logSuggestion(request string) {
	if request == "" {
		return
	}
	best := ""
	bestScore := 0.0
	for key := range r.byKey {
		score := matchr.JaroWinkler(request, key, true)
		if score > bestScore {
			bestScore = score
			best = key
		}
	}
	if best != "" && bestScore >= 0.85 {
		r.logger.Warn("cadence lookup miss, did you mean?", "request", request, "suggestion", best)
	} else {
		r.logger.Warn("cadence lookup miss", "request", request)
	}
}

// Keys returns the canonical names currently in the default and
// localized tables (not the oneshot table), for diagnostics endpoints.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	return keys
}

// Cache exposes the waveform cache backing this registry, so callers
// that build ad hoc cadences can share it.
func (r *Registry) Cache() *waveform.Cache {
	return r.cache
}
