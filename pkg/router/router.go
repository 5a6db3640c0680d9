// Package router implements C8: deterministic, order-dependent
// classification of a free-text query into one of six search presets,
// grounded on the original_source search_config module's
// SearchConfigManager.get_config_for_query cue table (spec 4.8).
package router

import (
	"strings"
	"sync"
	"time"

	"github.com/coregx/ahocorasick"
)

// Preset is the closed set of query-type presets spec 4.8 names.
type Preset string

const (
	PresetTagBased         Preset = "TAG_BASED"
	PresetGraphExploration Preset = "GRAPH_EXPLORATION"
	PresetFactual          Preset = "FACTUAL"
	PresetConceptual       Preset = "CONCEPTUAL"
	PresetRecentContext    Preset = "RECENT_CONTEXT"
	PresetExploratory      Preset = "EXPLORATORY"
)

// Method is the search method a preset routes to.
type Method string

const (
	MethodTag    Method = "tag"
	MethodGraph  Method = "graph"
	MethodBM25   Method = "bm25"
	MethodVector Method = "vector"
	MethodHybrid Method = "hybrid"
)

// TimeRange is an optional valid_at window a preset attaches (only
// RECENT_CONTEXT uses one, per spec 4.8).
type TimeRange struct {
	From int64
	To   int64
}

// Route is the classifier's output: the preset, its search method, an
// indication of whether reranking is expected, and an optional time
// window.
type Route struct {
	Preset Preset
	Method Method
	Rerank bool
	Window *TimeRange
}

var graphCues = []string{"related", "connected", "linked", "graph"}
var factualCues = []string{"what", "when", "where", "how many", "how much"}
var conceptualCues = []string{"why", "explain", "understand", "theory"}
var recentCues = []string{"recent", "latest", "today", "yesterday", "last"}

// cueMatcher wraps a single Aho-Corasick automaton over one cue table,
// matching the way the teacher's entity scanner ran one automaton pass
// instead of one strings.Contains per pattern. Built lazily since the
// cue tables are package-level constants known only at first use.
type cueMatcher struct {
	once sync.Once
	ac   *ahocorasick.Automaton
}

func (m *cueMatcher) build(cues []string) {
	m.once.Do(func() {
		ac, err := ahocorasick.NewBuilder().
			AddStrings(cues).
			SetMatchKind(ahocorasick.LeftmostLongest).
			Build()
		if err != nil {
			// Cue tables are fixed string literals; a build failure here
			// is a programmer error, not a runtime condition to recover from.
			panic("router: cue automaton build: " + err.Error())
		}
		m.ac = ac
	})
}

func (m *cueMatcher) matchAny(cues []string, s string) bool {
	m.build(cues)
	return len(m.ac.FindAllOverlapping([]byte(s))) > 0
}

var (
	graphMatcher      cueMatcher
	conceptualMatcher cueMatcher
	recentMatcher     cueMatcher
)

// recentWindow is the dynamic "last 7 days" window spec 4.8's
// RECENT_CONTEXT preset attaches, relative to now.
const recentWindow = 7 * 24 * time.Hour

// Classify implements spec 4.8's ordered cue-phrase table. Rows are
// tried top-to-bottom — the first cue that matches wins, so a query
// containing both a graph cue and a factual cue classifies as
// GRAPH_EXPLORATION (row 2 beats row 3). now is the reference instant
// used to compute RECENT_CONTEXT's window; callers pass the same value
// they'll use for the resulting search call.
func Classify(query string, now time.Time) Route {
	lower := strings.ToLower(strings.TrimSpace(query))

	if strings.HasPrefix(lower, "tag:") || strings.Contains(query, "#") {
		return Route{Preset: PresetTagBased, Method: MethodTag}
	}
	if graphMatcher.matchAny(graphCues, lower) {
		return Route{Preset: PresetGraphExploration, Method: MethodGraph}
	}
	if startsWithAny(lower, factualCues) {
		return Route{Preset: PresetFactual, Method: MethodBM25, Rerank: true}
	}
	if conceptualMatcher.matchAny(conceptualCues, lower) {
		return Route{Preset: PresetConceptual, Method: MethodVector, Rerank: true}
	}
	if recentMatcher.matchAny(recentCues, lower) {
		end := now.Unix()
		start := now.Add(-recentWindow).Unix()
		return Route{Preset: PresetRecentContext, Method: MethodHybrid, Window: &TimeRange{From: start, To: end}}
	}
	return Route{Preset: PresetExploratory, Method: MethodHybrid}
}

func startsWithAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.HasPrefix(s, c) {
			return true
		}
	}
	return false
}
