package domain

// Fixed texts of the analysis used when a model response cannot be parsed
const (
	FailedScoreExplanation = "Analysis failed, manual review required"
	FailedRedFlag          = "Analysis could not complete successfully"
	PlaceholderProvider    = "placeholder"
)

// Score is the 0-100 privacy score with its explanation
type Score struct {
	Value       int    `json:"value" jsonschema:"minimum=0,maximum=100"`
	Explanation string `json:"explanation"`
}

// AnalysisResult is the fixed schema every provider response is coerced into
type AnalysisResult struct {
	Summary        []string            `json:"summary" jsonschema:"description=Key points of the policy in plain language"`
	DataCollection map[string][]string `json:"dataCollection" jsonschema:"description=Data category mapped to the collected data items"`
	DataSharing    map[string]string   `json:"dataSharing" jsonschema:"description=Recipient mapped to the purpose of sharing"`
	Retention      string              `json:"retention" jsonschema:"description=How long data is kept"`
	UserRights     []string            `json:"userRights" jsonschema:"description=Rights the user can exercise"`
	Score          Score               `json:"score"`
	RedFlags       []string            `json:"redFlags" jsonschema:"description=Concerning practices"`
	Compliance     map[string]string   `json:"compliance" jsonschema:"description=Regulation name mapped to an assessment"`

	// Provenance, not part of the model contract
	Provider       string `json:"provider,omitempty"`
	Placeholder    bool   `json:"placeholder,omitempty"`
	AnalysisFailed bool   `json:"analysisFailed,omitempty"`
}

// Normalize replaces nil collections with empty ones and clamps the score
func (a *AnalysisResult) Normalize() {
	if a.Summary == nil {
		a.Summary = []string{}
	}
	if a.DataCollection == nil {
		a.DataCollection = map[string][]string{}
	}
	if a.DataSharing == nil {
		a.DataSharing = map[string]string{}
	}
	if a.UserRights == nil {
		a.UserRights = []string{}
	}
	if a.RedFlags == nil {
		a.RedFlags = []string{}
	}
	if a.Compliance == nil {
		a.Compliance = map[string]string{}
	}
	if a.Score.Value < 0 {
		a.Score.Value = 0
	}
	if a.Score.Value > 100 {
		a.Score.Value = 100
	}
}

// Cacheable reports whether the result may be served from the analysis cache
func (a *AnalysisResult) Cacheable() bool {
	return !a.AnalysisFailed && !a.Placeholder
}

// FailedAnalysis returns the neutral result used when a response resists repair
func FailedAnalysis() AnalysisResult {
	result := AnalysisResult{
		Score: Score{
			Value:       0,
			Explanation: FailedScoreExplanation,
		},
		RedFlags:       []string{FailedRedFlag},
		AnalysisFailed: true,
	}
	result.Normalize()
	return result
}

// PlaceholderAnalysis returns the clearly labeled stand-in used outside production
func PlaceholderAnalysis(reason string) AnalysisResult {
	result := AnalysisResult{
		Summary: []string{
			"Placeholder analysis: no AI provider produced a result.",
			reason,
		},
		Retention: "Unknown",
		Score: Score{
			Value:       50,
			Explanation: "Placeholder score generated without AI analysis",
		},
		RedFlags:    []string{"Placeholder analysis, not generated by an AI provider"},
		Provider:    PlaceholderProvider,
		Placeholder: true,
	}
	result.Normalize()
	return result
}
