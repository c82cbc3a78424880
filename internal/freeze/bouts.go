package freeze

import (
	"sort"

	"github.com/chrissnell/freezecompare/internal/types"
	"go.uber.org/zap"
)

// BoutExtractor groups freezing samples into bouts per session
type BoutExtractor struct {
	metadataFields []string
	logger         *zap.SugaredLogger
}

// NewBoutExtractor creates an extractor that copies the named metadata fields
// from each session's first sample into every bout of that session
func NewBoutExtractor(logger *zap.SugaredLogger, metadataFields ...string) *BoutExtractor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &BoutExtractor{
		metadataFields: metadataFields,
		logger:         logger,
	}
}

// scanState is the value carried across one session's samples
type scanState struct {
	inBout       bool
	pendingStart float64
	bouts        []types.Bout
}

// step folds one sample into the scan
func (st scanState) step(s types.FrameSample, key types.SessionKey, md map[string]string) scanState {
	switch {
	case s.Freeze && !st.inBout:
		st.inBout = true
		st.pendingStart = s.Time
	case !s.Freeze && st.inBout:
		st.inBout = false
		st.bouts = append(st.bouts, newBout(key, st.pendingStart, s.Time, md))
	}
	return st
}

func newBout(key types.SessionKey, start, end float64, md map[string]string) types.Bout {
	return types.Bout{
		Session:  key,
		Start:    start,
		End:      end,
		Duration: end - start,
		Metadata: md,
	}
}

// Extract returns one bout per maximal run of freezing samples in every session.
// Sessions are visited as the sorted product of every cohort and every day seen
// in the input; combinations without rows contribute no bouts and an EmptyInput
// diagnostic.
func (e *BoutExtractor) Extract(samples []types.FrameSample) ([]types.Bout, []types.Diagnostic) {
	sessions := types.Partition(samples)
	byKey := make(map[types.SessionKey]types.Session, len(sessions))
	cohorts := make(map[string]struct{})
	days := make(map[string]struct{})
	for _, s := range sessions {
		byKey[s.Key] = s
		cohorts[s.Key.Cohort] = struct{}{}
		days[s.Key.Day] = struct{}{}
	}

	bouts := []types.Bout{}
	var diags []types.Diagnostic

	for _, cohort := range sortedKeys(cohorts) {
		for _, day := range sortedKeys(days) {
			key := types.SessionKey{Cohort: cohort, Day: day}
			session, ok := byKey[key]
			if !ok {
				session = types.Session{Key: key}
			}

			sessionBouts, diag := e.ExtractSession(session)
			if diag != nil {
				diags = append(diags, *diag)
			}
			bouts = append(bouts, sessionBouts...)
		}
	}

	return bouts, diags
}

// ExtractSession scans a single session. The samples are sorted by timestamp
// first. A bout still open at the last sample is closed at that sample's time.
func (e *BoutExtractor) ExtractSession(session types.Session) ([]types.Bout, *types.Diagnostic) {
	if len(session.Samples) == 0 {
		e.logger.Infof("No data found for cohort_id: %s, day: %s", session.Key.Cohort, session.Key.Day)
		return nil, &types.Diagnostic{Kind: types.EmptyInput, Session: session.Key, Detail: "no rows"}
	}

	sorted := types.SortByTime(session.Samples)
	md := e.copyMetadata(sorted[0].Metadata)

	st := scanState{}
	for _, s := range sorted {
		st = st.step(s, session.Key, md)
	}
	if st.inBout {
		st.bouts = append(st.bouts, newBout(session.Key, st.pendingStart, sorted[len(sorted)-1].Time, md))
	}

	return st.bouts, nil
}

func (e *BoutExtractor) copyMetadata(src map[string]string) map[string]string {
	if len(e.metadataFields) == 0 {
		return nil
	}
	md := make(map[string]string, len(e.metadataFields))
	for _, f := range e.metadataFields {
		if v, ok := src[f]; ok {
			md[f] = v
		}
	}
	return md
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
