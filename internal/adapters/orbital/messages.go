package orbital

import "encoding/xml"

// Orbital validates element order against its schema, so struct field order matters.

type request struct {
	XMLName        xml.Name        `xml:"Request"`
	NewOrder       *newOrder       `xml:"NewOrder,omitempty"`
	MarkForCapture *markForCapture `xml:"MarkForCapture,omitempty"`
	Reversal       *reversal       `xml:"Reversal,omitempty"`
	Profile        *profile        `xml:"Profile,omitempty"`
}

// Message types of a NewOrder
const (
	messageAuthorize = "A"
	messagePurchase  = "AC"
	messageRefund    = "R"
)

// Profile actions
const (
	profileCreate   = "C"
	profileRetrieve = "R"
	profileUpdate   = "U"
	profileDelete   = "D"
)

type newOrder struct {
	Username         string `xml:"OrbitalConnectionUsername"`
	Password         string `xml:"OrbitalConnectionPassword"`
	IndustryType     string `xml:"IndustryType"`
	MessageType      string `xml:"MessageType"`
	BIN              string `xml:"BIN"`
	MerchantID       string `xml:"MerchantID"`
	TerminalID       string `xml:"TerminalID"`
	AccountNum       string `xml:"AccountNum,omitempty"`
	Exp              string `xml:"Exp,omitempty"`
	CurrencyCode     string `xml:"CurrencyCode"`
	CurrencyExponent string `xml:"CurrencyExponent"`
	CardSecValInd    string `xml:"CardSecValInd,omitempty"`
	CardSecVal       string `xml:"CardSecVal,omitempty"`
	AVSZip           string `xml:"AVSzip,omitempty"`
	AVSAddress1      string `xml:"AVSaddress1,omitempty"`
	AVSAddress2      string `xml:"AVSaddress2,omitempty"`
	AVSCity          string `xml:"AVScity,omitempty"`
	AVSState         string `xml:"AVSstate,omitempty"`
	AVSPhone         string `xml:"AVSphoneNum,omitempty"`
	AVSName          string `xml:"AVSname,omitempty"`
	// AVSCountryCode is sent, possibly empty, whenever an address is present.
	AVSCountryCode *string `xml:"AVScountryCode,omitempty"`
	CustomerRefNum string  `xml:"CustomerRefNum,omitempty"`
	OrderID        string  `xml:"OrderID"`
	Amount         string  `xml:"Amount"`
	Comments       string  `xml:"Comments,omitempty"`
	TxRefNum       string  `xml:"TxRefNum,omitempty"`
}

type markForCapture struct {
	Username   string `xml:"OrbitalConnectionUsername"`
	Password   string `xml:"OrbitalConnectionPassword"`
	OrderID    string `xml:"OrderID"`
	Amount     string `xml:"Amount"`
	BIN        string `xml:"BIN"`
	MerchantID string `xml:"MerchantID"`
	TerminalID string `xml:"TerminalID"`
	TxRefNum   string `xml:"TxRefNum"`
}

type reversal struct {
	Username   string `xml:"OrbitalConnectionUsername"`
	Password   string `xml:"OrbitalConnectionPassword"`
	TxRefNum   string `xml:"TxRefNum"`
	TxRefIdx   string `xml:"TxRefIdx,omitempty"`
	OrderID    string `xml:"OrderID"`
	BIN        string `xml:"BIN"`
	MerchantID string `xml:"MerchantID"`
	TerminalID string `xml:"TerminalID"`
}

type profile struct {
	Username            string `xml:"OrbitalConnectionUsername"`
	Password            string `xml:"OrbitalConnectionPassword"`
	CustomerBin         string `xml:"CustomerBin"`
	CustomerMerchantID  string `xml:"CustomerMerchantID"`
	CustomerName        string `xml:"CustomerName,omitempty"`
	CustomerRefNum      string `xml:"CustomerRefNum,omitempty"`
	CustomerAddress1    string `xml:"CustomerAddress1,omitempty"`
	CustomerAddress2    string `xml:"CustomerAddress2,omitempty"`
	CustomerCity        string `xml:"CustomerCity,omitempty"`
	CustomerState       string `xml:"CustomerState,omitempty"`
	CustomerZIP         string `xml:"CustomerZIP,omitempty"`
	CustomerEmail       string `xml:"CustomerEmail,omitempty"`
	CustomerPhone       string `xml:"CustomerPhone,omitempty"`
	CustomerCountryCode string `xml:"CustomerCountryCode,omitempty"`
	Action              string `xml:"CustomerProfileAction"`
	OrderOverrideInd    string `xml:"CustomerProfileOrderOverrideInd,omitempty"`
	FromOrderInd        string `xml:"CustomerProfileFromOrderInd,omitempty"`
	AccountType         string `xml:"CustomerAccountType,omitempty"`
	Status              string `xml:"Status,omitempty"`
	CCAccountNum        string `xml:"CCAccountNum,omitempty"`
	CCExpireDate        string `xml:"CCExpireDate,omitempty"`
}

// response holds whichever result element the gateway answered with.
type response struct {
	XMLName            xml.Name     `xml:"Response"`
	QuickResp          *orderResult `xml:"QuickResp"`
	NewOrderResp       *orderResult `xml:"NewOrderResp"`
	MarkForCaptureResp *orderResult `xml:"MarkForCaptureResp"`
	ReversalResp       *orderResult `xml:"ReversalResp"`
	ProfileResp        *orderResult `xml:"ProfileResp"`
}

func (r *response) result() *orderResult {
	for _, res := range []*orderResult{r.NewOrderResp, r.MarkForCaptureResp, r.ReversalResp, r.ProfileResp, r.QuickResp} {
		if res != nil {
			return res
		}
	}
	return nil
}

type orderResult struct {
	ProcStatus             string `xml:"ProcStatus"`
	ApprovalStatus         string `xml:"ApprovalStatus"`
	RespCode               string `xml:"RespCode"`
	StatusMsg              string `xml:"StatusMsg"`
	RespMsg                string `xml:"RespMsg"`
	AuthCode               string `xml:"AuthCode"`
	AVSRespCode            string `xml:"AVSRespCode"`
	CVV2RespCode           string `xml:"CVV2RespCode"`
	TxRefNum               string `xml:"TxRefNum"`
	OrderID                string `xml:"OrderID"`
	CustomerRefNum         string `xml:"CustomerRefNum"`
	CustomerName           string `xml:"CustomerName"`
	CCAccountNum           string `xml:"CCAccountNum"`
	CustomerProfileAction  string `xml:"CustomerProfileAction"`
	ProfileProcStatus      string `xml:"ProfileProcStatus"`
	CustomerProfileMessage string `xml:"CustomerProfileMessage"`
}

// message picks the most specific text the gateway returned.
func (o *orderResult) message() string {
	for _, m := range []string{o.RespMsg, o.StatusMsg, o.CustomerProfileMessage} {
		if m != "" {
			return m
		}
	}
	return ""
}
