package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// rcaFindings is the parsed form of a structured RCA response.
type rcaFindings struct {
	RootCause       incident.Insight
	Impact          incident.Insight
	KeyFindings     []string
	Recommendations []string
}

var (
	sectionRe    = regexp.MustCompile(`(?i)^\s*(?:\d+\.\s*)?(root cause analysis|impact analysis|key findings|recommendations)\s*:?\s*$`)
	confidenceRe = regexp.MustCompile(`(?i)confidence:\s*([0-9]+(?:\.[0-9]+)?)\s*%`)
	bulletRe     = regexp.MustCompile(`^\s*[-*•]\s+(.*)$`)
	insightRe    = regexp.MustCompile(`(?i)^\s*(?:\d+\.\s*)?insight:\s*(.*)$`)
)

// parseRCA extracts the root cause, impact, findings, and recommendations
// from the model's structured text. Missing pieces are left zero-valued; the
// caller decides on fallbacks. The model does not always follow the template
// exactly, so parsing is line-based and lenient.
func parseRCA(text string) *rcaFindings {
	out := &rcaFindings{}

	type sectionState struct {
		insight    *incident.Insight
		items      *[]string
		inEvidence bool
	}
	var cur sectionState

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			switch strings.ToLower(m[1]) {
			case "root cause analysis":
				cur = sectionState{insight: &out.RootCause}
			case "impact analysis":
				cur = sectionState{insight: &out.Impact}
			case "key findings":
				cur = sectionState{items: &out.KeyFindings}
			case "recommendations":
				cur = sectionState{items: &out.Recommendations}
			}
			continue
		}

		switch {
		case cur.insight != nil:
			if m := confidenceRe.FindStringSubmatch(line); m != nil {
				cur.insight.Confidence = parseConfidence(m[1])
				continue
			}
			if strings.EqualFold(line, "evidence:") {
				cur.inEvidence = true
				continue
			}
			if m := bulletRe.FindStringSubmatch(line); m != nil && cur.inEvidence {
				cur.insight.Evidence = append(cur.insight.Evidence, m[1])
				continue
			}
			if cur.insight.Description == "" {
				cur.insight.Description = strings.Trim(line, "*[] ")
			}

		case cur.items != nil:
			if m := bulletRe.FindStringSubmatch(line); m != nil {
				*cur.items = append(*cur.items, m[1])
			}
		}
	}

	return out
}

// parseInsights extracts "Insight: ... / Confidence: NN% / Evidence: ..."
// blocks. If the text contains no recognizable blocks, the whole response is
// wrapped as a single insight so model output is never lost.
func parseInsights(text string) []incident.Insight {
	var insights []incident.Insight
	var cur *incident.Insight
	inEvidence := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := insightRe.FindStringSubmatch(line); m != nil {
			insights = append(insights, incident.Insight{Description: m[1]})
			cur = &insights[len(insights)-1]
			inEvidence = false
			continue
		}
		if cur == nil {
			continue
		}
		if m := confidenceRe.FindStringSubmatch(line); m != nil {
			cur.Confidence = parseConfidence(m[1])
			continue
		}
		if strings.EqualFold(line, "evidence:") {
			inEvidence = true
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil && inEvidence {
			cur.Evidence = append(cur.Evidence, m[1])
		}
	}

	if len(insights) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []incident.Insight{{Description: trimmed, Confidence: 0.5}}
	}
	return insights
}

// parseConfidence converts a percentage string to the 0.0-1.0 range.
func parseConfidence(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 1
	}
	return v / 100
}
