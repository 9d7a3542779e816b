package orbital

import (
	"fmt"
	"strconv"
)

const (
	livePrimaryURL   = "https://orbital1.paymentech.net/authorize"
	liveSecondaryURL = "https://orbital2.paymentech.net/authorize"
	testPrimaryURL   = "https://orbitalvar1.paymentech.net/authorize"
	testSecondaryURL = "https://orbitalvar2.paymentech.net/authorize"
)

// Config is the typed configuration of a Chase Orbital gateway.
type Config struct {
	// Login and Password are the Orbital connection username and password.
	Login      string
	Password   string
	MerchantID string
	BIN        string
	TerminalID string
	// CurrencyCode is the ISO 4217 numeric code sent with every order.
	CurrencyCode string
	Test         bool

	// URL and SecondaryURL override the endpoints chosen by Test.
	URL          string
	SecondaryURL string

	RequestsPerSecond float64
}

// ParseConfig builds a Config from gateway params.
func ParseConfig(params map[string]string) (Config, error) {
	cfg := Config{
		Login:        params["login"],
		Password:     params["password"],
		MerchantID:   params["merchant_id"],
		BIN:          getParam(params, "bin", "000001"),
		TerminalID:   getParam(params, "terminal_id", "001"),
		CurrencyCode: getParam(params, "currency_code", "840"),
		URL:          params["url"],
		SecondaryURL: params["secondary_url"],
	}

	for key, value := range map[string]string{"login": cfg.Login, "password": cfg.Password, "merchant_id": cfg.MerchantID} {
		if value == "" {
			return Config{}, fmt.Errorf("orbital: %s is required", key)
		}
	}

	if v := params["test"]; v != "" {
		test, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("orbital: invalid test flag %q: %w", v, err)
		}
		cfg.Test = test
	}

	if v := params["requests_per_second"]; v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("orbital: invalid requests_per_second %q", v)
		}
		cfg.RequestsPerSecond = rps
	}

	return cfg, nil
}

// Endpoints returns the primary endpoint followed by the failover endpoint.
func (c Config) Endpoints() []string {
	if c.URL != "" {
		if c.SecondaryURL != "" {
			return []string{c.URL, c.SecondaryURL}
		}
		return []string{c.URL}
	}
	if c.Test {
		return []string{testPrimaryURL, testSecondaryURL}
	}
	return []string{livePrimaryURL, liveSecondaryURL}
}

func getParam(params map[string]string, key, defaultValue string) string {
	if v := params[key]; v != "" {
		return v
	}
	return defaultValue
}
