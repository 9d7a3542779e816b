package authnetcim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kevin07696/payment-bridge/internal/domain"
)

// poster sends one request body and returns the raw response body.
type poster interface {
	Post(ctx context.Context, body []byte) ([]byte, error)
}

var utf8BOM = []byte("\xef\xbb\xbf")

// call wraps req in its root element, posts it, and decodes the response.
func (g *Gateway) call(ctx context.Context, root string, req interface{}) (*response, error) {
	body, err := json.Marshal(map[string]interface{}{root: req})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", root, err)
	}

	raw, err := g.client.Post(ctx, body)
	if err != nil {
		return nil, domain.WrapBackendError("Authorize.Net CIM: gateway request failed", err)
	}

	// The API prefixes JSON responses with a byte order mark.
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, domain.WrapBackendError("Authorize.Net CIM: malformed gateway response", err)
	}
	code := ""
	if len(resp.Messages.Message) > 0 {
		code = resp.Messages.Message[0].Code
	}
	fmt.Fprintf(g.diagnostics, "authorize_net_cim %s result=%s code=%s\n", root, resp.Messages.ResultCode, code)

	if resp.Messages.ResultCode == "" {
		return nil, domain.NewBackendError("Authorize.Net CIM: gateway response carried no result code")
	}
	return &resp, nil
}

func (r *response) success() bool {
	return r.Messages.ResultCode == "Ok"
}

func (r *response) text() string {
	if len(r.Messages.Message) == 0 {
		return ""
	}
	return r.Messages.Message[0].Text
}

// directResponse is the comma-delimited AIM response string embedded in transaction responses.
type directResponse struct {
	Code          string
	ReasonText    string
	AuthCode      string
	TransactionID string
}

func parseDirectResponse(s string) directResponse {
	fields := strings.Split(s, ",")
	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return directResponse{
		Code:          at(0),
		ReasonText:    at(3),
		AuthCode:      at(4),
		TransactionID: at(6),
	}
}

// heldForReview is the direct response code for transactions held by fraud filters.
const heldForReview = "4"
