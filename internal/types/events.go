package types

// TransitionKind is the direction of a change in the freeze indicator
type TransitionKind string

const (
	// Onset is a 0 -> 1 change, the start of a freeze
	Onset TransitionKind = "onset"

	// Offset is a 1 -> 0 change, the end of a freeze
	Offset TransitionKind = "offset"
)

// Transition is a change of the freeze indicator at a sample timestamp
type Transition struct {
	Session SessionKey     `json:"session"`
	Time    float64        `json:"t"`
	Kind    TransitionKind `json:"transition_type"`
}

// Bout is a maximal run of freezing samples within one session
type Bout struct {
	Session  SessionKey        `json:"session"`
	Start    float64           `json:"start"`
	End      float64           `json:"end"`
	Duration float64           `json:"duration"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MinuteBin summarizes the bouts that start within one minute of the experiment.
// MedianDuration and MeanDuration are nil when the bin holds no bouts, which is
// distinct from a measured duration of zero.
type MinuteBin struct {
	Minute         int      `json:"minute"`
	Count          int      `json:"count"`
	MedianDuration *float64 `json:"median_duration"`
	MeanDuration   *float64 `json:"mean_duration"`
}

// HasData reports whether the bin holds any bouts
func (b MinuteBin) HasData() bool {
	return b.Count > 0
}

// AlignedSample is one sample of the other modality falling inside the window
// around a transition. RelativeTime is measured from the nearest matched sample,
// not from the transition itself.
type AlignedSample struct {
	Session      SessionKey     `json:"session"`
	Label        string         `json:"label"`
	Time         float64        `json:"t"`
	RelativeTime float64        `json:"relative_time"`
	Kind         TransitionKind `json:"transition_type"`
	AnchorTime   float64        `json:"anchor_t"`
}

// EthogramPair holds two whole-session binary signals truncated to equal length
type EthogramPair struct {
	Session   SessionKey        `json:"session"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Reference []bool            `json:"reference"`
	Candidate []bool            `json:"candidate"`
}
