package models

// SourceRating describes one contributing data source and its reliability
// weight in [0,1]
type SourceRating struct {
	Name        string  `json:"name"`
	Reliability float64 `json:"reliability"`
}

// ValidationResult carries the outcome of a validation pass.
// Warnings reduce the confidence multiplier; errors make the object
// unusable and it must not be surfaced.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Confidence float64  `json:"confidence"` // multiplier in [0,1]
	Warnings   []string `json:"warnings,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// NewValidationResult returns a passing result with full confidence
func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true, Confidence: 1.0}
}

// AddWarning records a non-fatal finding and applies a confidence penalty
func (r *ValidationResult) AddWarning(msg string, penalty float64) {
	r.Warnings = append(r.Warnings, msg)
	r.Confidence *= 1 - penalty
	if r.Confidence < 0 {
		r.Confidence = 0
	}
}

// AddError records a fatal finding; the validated object must be discarded
func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// Merge folds another result into this one
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Errors = append(r.Errors, other.Errors...)
	r.Confidence *= other.Confidence
	if !other.Valid {
		r.Valid = false
	}
}
