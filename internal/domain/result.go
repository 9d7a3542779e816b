package domain

// Result is the uniform outcome every backend operation returns.
type Result struct {
	Success       bool
	Test          bool
	FraudReview   bool
	Message       string
	Authorization string
	// Params carries backend-specific response fields for diagnostics.
	Params map[string]string
}
