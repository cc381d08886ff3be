package content

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

const defaultRatesPrompt = "Summarize these exchange rates in one or two sentences, noting anything unusual."

// ratesResponse mirrors the fields read from the exchange-rate endpoint.
type ratesResponse struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

// RatesProvider fetches currency exchange rates from open.er-api.com.
type RatesProvider struct {
	base    string
	symbols []string
	prompt  string
	baseURL string
	client  *http.Client
}

// NewRates builds an exchange-rate provider from plugin params.
// Optional: base (default "USD"), symbols, prompt, base_url.
func NewRates(params map[string]any) (*RatesProvider, error) {
	symbols := capability.StringsParam(params, "symbols")
	if len(symbols) == 0 {
		symbols = []string{"EUR", "GBP", "JPY"}
	}
	for i, s := range symbols {
		symbols[i] = strings.ToUpper(s)
	}
	sort.Strings(symbols)

	return &RatesProvider{
		base:    strings.ToUpper(capability.StringParam(params, "base", "USD")),
		symbols: symbols,
		prompt:  capability.StringParam(params, "prompt", defaultRatesPrompt),
		baseURL: capability.StringParam(params, "base_url", "https://open.er-api.com"),
		client:  newHTTPClient(),
	}, nil
}

func (p *RatesProvider) Prompt() string { return p.prompt }

// Fetch returns one line per requested symbol against the base currency.
func (p *RatesProvider) Fetch(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/v6/latest/%s", p.baseURL, p.base)

	var res ratesResponse
	if err := getJSON(ctx, p.client, "exchange rate API", endpoint, nil, &res); err != nil {
		return "", err
	}

	if res.Result != "success" {
		return "", fmt.Errorf("exchange rate API returned result %q", res.Result)
	}

	var b strings.Builder
	for _, sym := range p.symbols {
		rate, ok := res.Rates[sym]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "1 %s = %.4f %s\n", p.base, rate, sym)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("exchange rate API returned none of the requested symbols")
	}

	return b.String(), nil
}
