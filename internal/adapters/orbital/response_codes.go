package orbital

// ResponseCodeInfo contains detailed information about an Orbital response code
type ResponseCodeInfo struct {
	Code        string
	Display     string
	IsApproved  bool
	FraudReview bool
}

// Response codes Orbital counts as approved. 91 to 94 are approvals scored by the fraud service;
// medium and high scores are flagged for review.
var creditCardResponseCodes = map[string]ResponseCodeInfo{
	"00": {Code: "00", Display: "Approved", IsApproved: true},
	"08": {Code: "08", Display: "Approved authorization, honor with identification", IsApproved: true},
	"11": {Code: "11", Display: "Approved authorization, VIP approval", IsApproved: true},
	"24": {Code: "24", Display: "Validated", IsApproved: true},
	"26": {Code: "26", Display: "Pre-noted", IsApproved: true},
	"27": {Code: "27", Display: "No reason to decline", IsApproved: true},
	"28": {Code: "28", Display: "Received and stored", IsApproved: true},
	"29": {Code: "29", Display: "Provided authorization", IsApproved: true},
	"31": {Code: "31", Display: "Request received", IsApproved: true},
	"32": {Code: "32", Display: "BIN alert", IsApproved: true},
	"34": {Code: "34", Display: "Approved for partial amount", IsApproved: true},
	"91": {Code: "91", Display: "Approved, low fraud", IsApproved: true},
	"92": {Code: "92", Display: "Approved, medium fraud", IsApproved: true, FraudReview: true},
	"93": {Code: "93", Display: "Approved, high fraud", IsApproved: true, FraudReview: true},
	"94": {Code: "94", Display: "Approved, fraud service unavailable", IsApproved: true},
	"E7": {Code: "E7", Display: "Stored", IsApproved: true},
	"PA": {Code: "PA", Display: "Partial approval", IsApproved: true},
	"P1": {Code: "P1", Display: "ECP, AVS account/zip approved", IsApproved: true},
	"P4": {Code: "P4", Display: "ECP, pre-noted", IsApproved: true},

	"04": {Code: "04", Display: "Pick up"},
	"05": {Code: "05", Display: "Do not honor"},
	"12": {Code: "12", Display: "Invalid transaction type"},
	"14": {Code: "14", Display: "Invalid account number"},
	"33": {Code: "33", Display: "Expired card"},
	"43": {Code: "43", Display: "Stolen card, pick up"},
	"51": {Code: "51", Display: "Insufficient funds"},
	"68": {Code: "68", Display: "Invalid CVV2"},
}

// GetCreditCardResponseCode retrieves response code information
func GetCreditCardResponseCode(code string) ResponseCodeInfo {
	if info, exists := creditCardResponseCodes[code]; exists {
		return info
	}
	// Default for unknown codes
	return ResponseCodeInfo{Code: code, Display: "Unknown response code"}
}
