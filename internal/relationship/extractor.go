package relationship

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sells-group/edgar-profiler/internal/directory"
	"github.com/sells-group/edgar-profiler/internal/model"
)

// Config bounds the extractor's matching behavior.
type Config struct {
	// FuzzyThreshold is the minimum token similarity for a fuzzy name match.
	FuzzyThreshold float64
	// MinConfidence discards edges scored below it.
	MinConfidence float64
}

// Extractor turns narrative text into relationship edges and financial
// relationship records, resolving company names through the directory.
type Extractor struct {
	dir *directory.Directory
	cfg Config
}

// New creates an extractor over the given company directory.
func New(dir *directory.Directory, cfg Config) *Extractor {
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = 0.82
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.50
	}
	return &Extractor{dir: dir, cfg: cfg}
}

var firstPersonRE = regexp.MustCompile(`(?i)\b(?:we|our|us|the\s+company)\b`)

var sentenceSplitRE = regexp.MustCompile(`[.!?]\s+`)

// Extract runs the three sub-extractors over the narrative bodies keyed by
// form type. Empty input short-circuits to an unavailable partial. Edges are
// deduplicated within the run: each (target, type) appears once with
// mention_count 1 and the maximum confidence seen.
func (e *Extractor) Extract(sourceCIK string, texts map[string]string, now time.Time) *model.RelationshipsPartial {
	out := &model.RelationshipsPartial{}

	combined := combineTexts(texts)
	if strings.TrimSpace(combined) == "" {
		out.Warn("no narrative text available for relationship extraction")
		return out
	}
	if e.dir == nil || e.dir.Len() == 0 {
		out.Warn("known-companies directory is empty")
		return out
	}

	mentions := Mentions(combined, e.dir, sourceCIK, e.cfg.FuzzyThreshold)
	if len(mentions) == 0 {
		out.Available = true
		out.Financial = ExtractFinancial(sourceCIK, combined)
		return out
	}

	out.Edges = e.contextEdges(sourceCIK, combined, now)
	out.Financial = ExtractFinancial(sourceCIK, combined)
	out.Available = true
	return out
}

// contextEdges classifies sentences containing the source company (named or
// first-person) together with at least one other known company.
func (e *Extractor) contextEdges(sourceCIK, text string, now time.Time) []model.Edge {
	type edgeKey struct {
		target  string
		relType model.RelationshipType
	}
	best := make(map[edgeKey]model.Edge)

	for _, sentence := range sentenceSplitRE.Split(text, -1) {
		if len(sentence) < 20 {
			continue
		}

		relType, base, ok := classifySentence(sentence)
		if !ok {
			continue
		}

		// Source confidence: explicit name beats the first-person fallback.
		sentenceMentions := Mentions(sentence, e.dir, "", e.cfg.FuzzyThreshold)
		sourceConf := 0.0
		var targets []Mention
		for _, m := range sentenceMentions {
			if m.TargetCIK == sourceCIK {
				if m.Confidence > sourceConf {
					sourceConf = m.Confidence
				}
				continue
			}
			targets = append(targets, m)
		}
		if sourceConf == 0 && firstPersonRE.MatchString(sentence) {
			sourceConf = 1.0
		}
		if sourceConf == 0 || len(targets) == 0 {
			continue
		}

		for _, target := range targets {
			conf := base * min(sourceConf, target.Confidence)
			if conf < e.cfg.MinConfidence {
				continue
			}
			key := edgeKey{target: target.TargetCIK, relType: relType}
			if cur, seen := best[key]; seen && cur.Confidence >= conf {
				continue
			}
			best[key] = model.Edge{
				SourceCIK:        sourceCIK,
				TargetCIK:        target.TargetCIK,
				TargetName:       target.TargetName,
				RelationshipType: relType,
				Confidence:       conf,
				ExtractionMethod: fmt.Sprintf("context:%s", target.Method),
				ContextExcerpt:   excerpt(sentence, 200),
				FirstMentioned:   now,
				LastMentioned:    now,
				MentionCount:     1,
			}
		}
	}

	edges := make([]model.Edge, 0, len(best))
	for _, edge := range best {
		edges = append(edges, edge)
	}
	return edges
}

func combineTexts(texts map[string]string) string {
	// Deterministic order: 10-K first, then 10-Q, then anything else.
	var b strings.Builder
	for _, key := range []string{"10-K", "10-Q"} {
		if t := texts[key]; t != "" {
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	for key, t := range texts {
		if key == "10-K" || key == "10-Q" || t == "" {
			continue
		}
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String()
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n]
}
