package authnetcim

// Request and response bodies for the Authorize.Net JSON API.
// The API validates element order, so struct field order matters.

type merchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type customerProfile struct {
	MerchantCustomerID string `json:"merchantCustomerId,omitempty"`
	Description        string `json:"description,omitempty"`
	Email              string `json:"email,omitempty"`
}

type customerAddress struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
}

type creditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode,omitempty"`
}

type payment struct {
	CreditCard creditCard `json:"creditCard"`
}

type paymentProfile struct {
	BillTo                   *customerAddress `json:"billTo,omitempty"`
	Payment                  payment          `json:"payment"`
	CustomerPaymentProfileID string           `json:"customerPaymentProfileId,omitempty"`
}

type createCustomerProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	Profile                customerProfile        `json:"profile"`
}

type createCustomerPaymentProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	PaymentProfile         paymentProfile         `json:"paymentProfile"`
	ValidationMode         string                 `json:"validationMode,omitempty"`
}

type createCustomerShippingAddressRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	Address                customerAddress        `json:"address"`
}

type updateCustomerPaymentProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	PaymentProfile         paymentProfile         `json:"paymentProfile"`
	ValidationMode         string                 `json:"validationMode,omitempty"`
}

type getCustomerProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID      string                 `json:"customerProfileId"`
}

type deleteCustomerProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID      string                 `json:"customerProfileId"`
}

type deleteCustomerPaymentProfileRequest struct {
	MerchantAuthentication   merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID        string                 `json:"customerProfileId"`
	CustomerPaymentProfileID string                 `json:"customerPaymentProfileId"`
}

type deleteCustomerShippingAddressRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	CustomerAddressID      string                 `json:"customerAddressId"`
}

type order struct {
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Description   string `json:"description,omitempty"`
}

// profileTransaction is the body shared by every profileTrans* element.
type profileTransaction struct {
	Amount                    string `json:"amount,omitempty"`
	CustomerProfileID         string `json:"customerProfileId"`
	CustomerPaymentProfileID  string `json:"customerPaymentProfileId"`
	CustomerShippingAddressID string `json:"customerShippingAddressId,omitempty"`
	Order                     *order `json:"order,omitempty"`
	TransID                   string `json:"transId,omitempty"`
}

// transaction holds exactly one of the profileTrans* elements.
type transaction struct {
	AuthOnly         *profileTransaction `json:"profileTransAuthOnly,omitempty"`
	AuthCapture      *profileTransaction `json:"profileTransAuthCapture,omitempty"`
	PriorAuthCapture *profileTransaction `json:"profileTransPriorAuthCapture,omitempty"`
	Refund           *profileTransaction `json:"profileTransRefund,omitempty"`
	Void             *profileTransaction `json:"profileTransVoid,omitempty"`
}

type createCustomerProfileTransactionRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	Transaction            transaction            `json:"transaction"`
}

type message struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type messages struct {
	ResultCode string    `json:"resultCode"`
	Message    []message `json:"message"`
}

// response is the union of the response fields the shim reads.
type response struct {
	RefID                    string   `json:"refId"`
	Messages                 messages `json:"messages"`
	CustomerProfileID        string   `json:"customerProfileId"`
	CustomerPaymentProfileID string   `json:"customerPaymentProfileId"`
	CustomerAddressID        string   `json:"customerAddressId"`
	DirectResponse           string   `json:"directResponse"`
	Profile                  *struct {
		MerchantCustomerID string `json:"merchantCustomerId"`
		Email              string `json:"email"`
		CustomerProfileID  string `json:"customerProfileId"`
		PaymentProfiles    []struct {
			CustomerPaymentProfileID string `json:"customerPaymentProfileId"`
		} `json:"paymentProfiles"`
		ShipToList []struct {
			CustomerAddressID string `json:"customerAddressId"`
		} `json:"shipToList"`
	} `json:"profile"`
}
