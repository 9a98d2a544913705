// Package contradiction compares claim pairs sharing a comparable subject
// and reports numeric, temporal and logical conflicts with severity.
//
// Detection is lexical/numeric/temporal, not semantic: two claims conflict
// when their parsed magnitudes, parsed dates, or opposing keywords
// disagree beyond configured tolerances.
package contradiction

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/veriplan/veriplan/internal/model"
)

// Detector evaluates claim pairs. Rules run numerical -> temporal ->
// logical; the first rule that triggers wins and only one contradiction is
// reported per pair.
type Detector struct {
	numericalTolerancePct float64
	temporalToleranceDays int
	logicalSeverity       model.Severity
}

// NewDetector creates a detector from configuration
func NewDetector(cfg model.ContradictionConfig) *Detector {
	tolerance := cfg.NumericalTolerancePct
	if tolerance <= 0 {
		tolerance = 10
	}
	days := cfg.TemporalToleranceDays
	if days <= 0 {
		days = 7
	}
	return &Detector{
		numericalTolerancePct: tolerance,
		temporalToleranceDays: days,
		logicalSeverity:       cfg.Severity(),
	}
}

// Related reports whether two tasks form a comparable subject: the same
// task, or tasks explicitly linked in the schedule.
type Related func(taskA, taskB string) bool

// SameTaskOnly is the minimal relation: claims compare only within a task
func SameTaskOnly(a, b string) bool { return a == b }

// Compare evaluates one unordered pair. Both claims must share a type;
// pairs of different types never conflict. The result is symmetric in its
// arguments.
func (d *Detector) Compare(a, b model.Claim) (model.Contradiction, bool) {
	if a.Type != b.Type || a.ID == b.ID {
		return model.Contradiction{}, false
	}

	if c, ok := d.compareNumerical(a, b); ok {
		return c, true
	}
	if c, ok := d.compareTemporal(a, b); ok {
		return c, true
	}
	if c, ok := d.compareLogical(a, b); ok {
		return c, true
	}
	return model.Contradiction{}, false
}

// DetectAll forms pairs between claims sharing a type and a task relation
// and returns every detected contradiction. Claims must already be in
// extraction order; output order follows pair formation order, so the
// result is deterministic for identical input.
func (d *Detector) DetectAll(claims []model.Claim, related Related) []model.Contradiction {
	if related == nil {
		related = SameTaskOnly
	}

	byType := make(map[model.ClaimType][]model.Claim)
	order := make([]model.ClaimType, 0, 4)
	for _, c := range claims {
		if _, seen := byType[c.Type]; !seen {
			order = append(order, c.Type)
		}
		byType[c.Type] = append(byType[c.Type], c)
	}

	var out []model.Contradiction
	for _, t := range order {
		group := byType[t]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !related(group[i].TaskID, group[j].TaskID) {
					continue
				}
				if c, ok := d.Compare(group[i], group[j]); ok {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// Summary groups contradictions by type and severity for reporting
func Summary(contradictions []model.Contradiction) map[model.ContradictionType]map[model.Severity]int {
	summary := make(map[model.ContradictionType]map[model.Severity]int)
	for _, c := range contradictions {
		if summary[c.Type] == nil {
			summary[c.Type] = make(map[model.Severity]int)
		}
		summary[c.Type][c.Severity]++
	}
	return summary
}

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

func (d *Detector) compareNumerical(a, b model.Claim) (model.Contradiction, bool) {
	// Date payloads contain digits too; those belong to the temporal rule
	if _, isDateA := parseDate(a.Value); isDateA {
		if _, isDateB := parseDate(b.Value); isDateB {
			return model.Contradiction{}, false
		}
	}

	va, okA := parseMagnitude(a.Value)
	vb, okB := parseMagnitude(b.Value)
	if !okA || !okB || va <= 0 || vb <= 0 {
		return model.Contradiction{}, false
	}

	smaller := math.Min(va, vb)
	percentDiff := math.Abs(va-vb) / smaller * 100
	if percentDiff <= d.numericalTolerancePct {
		return model.Contradiction{}, false
	}

	severity := model.SeverityLow
	switch {
	case percentDiff > 50:
		severity = model.SeverityHigh
	case percentDiff >= 25:
		severity = model.SeverityMedium
	}

	return model.Contradiction{
		ClaimA:   a.ID,
		ClaimB:   b.ID,
		TaskID:   a.TaskID,
		Type:     model.ContradictionNumerical,
		Severity: severity,
		Description: fmt.Sprintf("%s values differ by %.1f%%: %q vs %q",
			a.Type, percentDiff, a.Value, b.Value),
	}, true
}

func (d *Detector) compareTemporal(a, b model.Claim) (model.Contradiction, bool) {
	ta, okA := parseDate(a.Value)
	tb, okB := parseDate(b.Value)
	if !okA || !okB {
		return model.Contradiction{}, false
	}

	gapDays := int(math.Abs(ta.Sub(tb).Hours()) / 24)
	if gapDays <= d.temporalToleranceDays {
		return model.Contradiction{}, false
	}

	// Severity scales with the gap relative to the tolerance, mirroring
	// the numerical rule: beyond 4x tolerance is high, beyond 2x medium.
	severity := model.SeverityLow
	switch {
	case gapDays > 4*d.temporalToleranceDays:
		severity = model.SeverityHigh
	case gapDays > 2*d.temporalToleranceDays:
		severity = model.SeverityMedium
	}

	return model.Contradiction{
		ClaimA:   a.ID,
		ClaimB:   b.ID,
		TaskID:   a.TaskID,
		Type:     model.ContradictionTemporal,
		Severity: severity,
		Description: fmt.Sprintf("%s dates are %d days apart: %q vs %q",
			a.Type, gapDays, a.Value, b.Value),
	}, true
}

// opposites lists antonym/negation token pairs checked by the logical rule
var opposites = [][2]string{
	{"required", "optional"},
	{"mandatory", "optional"},
	{"always", "never"},
	{"can", "cannot"},
	{"before", "after"},
	{"parallel", "sequential"},
	{"available", "unavailable"},
	{"internal", "external"},
	{"approved", "rejected"},
}

func (d *Detector) compareLogical(a, b model.Claim) (model.Contradiction, bool) {
	tokensA := tokenSet(a.Value)
	tokensB := tokenSet(b.Value)

	for _, pair := range opposites {
		forward := tokensA[pair[0]] && tokensB[pair[1]]
		reverse := tokensA[pair[1]] && tokensB[pair[0]]
		if forward || reverse {
			return model.Contradiction{
				ClaimA:   a.ID,
				ClaimB:   b.ID,
				TaskID:   a.TaskID,
				Type:     model.ContradictionLogical,
				Severity: d.logicalSeverity,
				Description: fmt.Sprintf("%s statements oppose each other (%q vs %q): %q vs %q",
					a.Type, pair[0], pair[1], a.Value, b.Value),
			}, true
		}
	}
	return model.Contradiction{}, false
}

// parseMagnitude extracts the first numeric value from a claim payload
func parseMagnitude(value string) (float64, bool) {
	match := numberPattern.FindString(value)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// parseDate tries common date layouts over the claim payload
func parseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// tokenSet lowercases and splits a value into a word set
func tokenSet(value string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(value)) {
		set[strings.Trim(tok, ".,;:!?\"'()")] = true
	}
	return set
}
