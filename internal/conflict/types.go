// Package conflict compares a citation's working description with candidate
// descriptions produced by the pipeline. Nothing here changes a citation on
// its own; callers decide what to apply.
package conflict

// FieldConflict represents a property whose working value differs from the
// candidate's. Values are stored in full; truncation happens only at display
// time.
type FieldConflict struct {
	Property  string `json:"property"`
	Working   string `json:"working"`
	Candidate string `json:"candidate"`
}

// ResolutionAction indicates what accepting a candidate would mean.
type ResolutionAction string

const (
	ActionKeepWorking   ResolutionAction = "keep_working"   // Candidate adds nothing
	ActionFillMissing   ResolutionAction = "fill_missing"   // Candidate only adds fields
	ActionConflict      ResolutionAction = "conflict"       // Candidate disagrees with working values
	ActionTakeCandidate ResolutionAction = "take_candidate" // Working description is empty
)

// ResolutionPlan describes how a candidate relates to the working description.
type ResolutionPlan struct {
	Source string           `json:"source"` // ID of the filter that produced the candidate
	Action ResolutionAction `json:"action"`
	Reason string           `json:"reason"`

	// Properties the candidate would add to the working description
	Missing []string `json:"missing,omitempty"`

	// Properties where accepting the candidate would overwrite user data
	Conflicts []FieldConflict `json:"conflicts,omitempty"`

	WorkingScore   int     `json:"working_score"`
	CandidateScore int     `json:"candidate_score"`
	TitleMatch     float64 `json:"title_match"`
}
