package agreement

import (
	"errors"
	"sort"

	"github.com/chrissnell/freezecompare/internal/align"
	"github.com/chrissnell/freezecompare/internal/types"
	"go.uber.org/zap"
)

// SessionResult is the agreement of one session. Failed sessions carry 0 scores.
type SessionResult struct {
	Session types.SessionKey `json:"session"`
	Group   string           `json:"group,omitempty"`
	Frames  int              `json:"frames"`
	Scores
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GroupSummary holds the mean scores of one recognised group
type GroupSummary struct {
	Group    string `json:"group"`
	Sessions int    `json:"sessions"`
	Mean     Scores `json:"mean"`
}

// Report is the aggregate agreement over a batch of sessions.
//
// Sessions whose scoring failed count towards the means with 0 scores and are
// also listed in Skipped. SessionsScored counts only successful sessions.
type Report struct {
	Sessions        []SessionResult    `json:"sessions"`
	Groups          []GroupSummary     `json:"groups"`
	Overall         Scores             `json:"overall"`
	SessionsScored  int                `json:"sessions_scored"`
	SessionsSkipped int                `json:"sessions_skipped"`
	Skipped         []types.Diagnostic `json:"skipped"`
	Notes           []types.Diagnostic `json:"notes,omitempty"`
}

// tally is a running sum; combining tallies is order independent
type tally struct {
	f1, sensitivity float64
	n               int
}

func (t *tally) add(s Scores) {
	t.f1 += s.F1
	t.sensitivity += s.Sensitivity
	t.n++
}

func (t tally) mean() Scores {
	if t.n == 0 {
		return Scores{}
	}
	return Scores{F1: t.f1 / float64(t.n), Sensitivity: t.sensitivity / float64(t.n)}
}

// Scorer evaluates whole-session agreement stratified by a metadata field
type Scorer struct {
	groupField string
	groups     []string
	recognised map[string]bool
	logger     *zap.SugaredLogger
}

// NewScorer creates a scorer grouping sessions by the metadata field groupField.
// When groups is empty every non-empty label is recognised.
func NewScorer(groupField string, groups []string, logger *zap.SugaredLogger) *Scorer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Scorer{
		groupField: groupField,
		groups:     append([]string(nil), groups...),
		recognised: make(map[string]bool, len(groups)),
		logger:     logger,
	}
	for _, g := range groups {
		s.recognised[g] = true
	}
	return s
}

func (s *Scorer) isRecognised(label string) bool {
	if label == "" {
		return false
	}
	if len(s.recognised) == 0 {
		return true
	}
	return s.recognised[label]
}

// Compare truncates both modalities per session and evaluates the pairs
func (s *Scorer) Compare(reference, candidate []types.FrameSample) Report {
	pairs, skipped := align.TruncateSessions(reference, candidate)
	return s.Evaluate(pairs, skipped)
}

// Evaluate scores every pair in order. skipped lists sessions that never
// produced a pair; they are reported but do not enter any mean.
func (s *Scorer) Evaluate(pairs []types.EthogramPair, skipped []types.Diagnostic) Report {
	report := Report{
		Sessions: make([]SessionResult, 0, len(pairs)),
		Groups:   []GroupSummary{},
		Skipped:  append([]types.Diagnostic{}, skipped...),
	}
	for _, d := range skipped {
		s.logger.Warnf("Skipping session %s: %s", d.Session, d.Kind)
	}

	var overall tally
	byGroup := make(map[string]*tally)

	for _, pair := range pairs {
		result := SessionResult{
			Session: pair.Session,
			Group:   pair.Metadata[s.groupField],
			Frames:  len(pair.Reference),
		}

		scores, err := Score(pair.Reference, pair.Candidate)
		if err != nil {
			if !errors.Is(err, types.ErrScoringFailure) {
				s.logger.Errorf("Unexpected scoring error for %s: %v", pair.Session, err)
			}
			s.logger.Warnf("Scoring failed for %s, recording 0.0: %v", pair.Session, err)
			result.Failed = true
			result.Error = err.Error()
			report.Skipped = append(report.Skipped, types.Diagnostic{Kind: types.ScoringFailed, Session: pair.Session, Detail: err.Error()})
		} else {
			result.Scores = scores
			report.SessionsScored++
		}

		overall.add(result.Scores)
		if s.isRecognised(result.Group) {
			t, ok := byGroup[result.Group]
			if !ok {
				t = &tally{}
				byGroup[result.Group] = t
			}
			t.add(result.Scores)
		} else {
			s.logger.Infof("Session %s has unrecognised %s %q, excluded from group means", pair.Session, s.groupField, result.Group)
			report.Notes = append(report.Notes, types.Diagnostic{Kind: types.UnrecognizedGroup, Session: pair.Session, Detail: result.Group})
		}

		report.Sessions = append(report.Sessions, result)
	}

	report.Overall = overall.mean()
	report.SessionsSkipped = len(report.Skipped)
	for _, g := range s.groupOrder(byGroup) {
		t := byGroup[g]
		report.Groups = append(report.Groups, GroupSummary{Group: g, Sessions: t.n, Mean: t.mean()})
	}

	return report
}

// groupOrder lists groups with data in configured order, then any others sorted
func (s *Scorer) groupOrder(byGroup map[string]*tally) []string {
	var order []string
	seen := make(map[string]bool)
	for _, g := range s.groups {
		if _, ok := byGroup[g]; ok && !seen[g] {
			order = append(order, g)
			seen[g] = true
		}
	}
	var rest []string
	for g := range byGroup {
		if !seen[g] {
			rest = append(rest, g)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
