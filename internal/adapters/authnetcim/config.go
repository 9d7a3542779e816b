package authnetcim

import (
	"fmt"
	"strconv"
)

const (
	liveURL = "https://api.authorize.net/xml/v1/request.api"
	testURL = "https://apitest.authorize.net/xml/v1/request.api"
)

// Config is the typed configuration of an Authorize.Net CIM gateway.
type Config struct {
	// Login is the API Login ID.
	Login string
	// Password is the Transaction Key.
	Password string
	Test     bool
	// URL overrides the endpoint chosen by Test.
	URL string
	// RequestsPerSecond limits outgoing calls; zero means unlimited.
	RequestsPerSecond float64
}

// ParseConfig builds a Config from gateway params.
func ParseConfig(params map[string]string) (Config, error) {
	cfg := Config{
		Login:    params["login"],
		Password: params["password"],
		URL:      params["url"],
	}

	if cfg.Login == "" {
		return Config{}, fmt.Errorf("authorize_net_cim: login is required")
	}
	if cfg.Password == "" {
		return Config{}, fmt.Errorf("authorize_net_cim: password is required")
	}

	if v, ok := params["test"]; ok && v != "" {
		test, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("authorize_net_cim: invalid test flag %q: %w", v, err)
		}
		cfg.Test = test
	}

	if v, ok := params["requests_per_second"]; ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("authorize_net_cim: invalid requests_per_second %q", v)
		}
		cfg.RequestsPerSecond = rps
	}

	return cfg, nil
}

// Endpoint returns the API URL requests are posted to.
func (c Config) Endpoint() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Test {
		return testURL
	}
	return liveURL
}
