package domain

// ScreeningResult is the verdict of the order screening rules. A zero value
// means nothing suspicious was observed.
type ScreeningResult struct {
	Flagged bool
	Reason  string
}
