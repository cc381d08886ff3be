package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

const defaultWeatherPrompt = "Turn this weather report into a short, friendly briefing with one line of clothing advice."

// weatherResponse mirrors the fields read from the current-weather endpoint.
type weatherResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// WeatherProvider fetches current conditions from OpenWeatherMap.
type WeatherProvider struct {
	apiKey  string
	city    string
	units   string
	prompt  string
	baseURL string
	client  *http.Client
}

// NewWeather builds a weather provider from plugin params.
// Required: api_key, city. Optional: units ("metric" or "imperial"),
// prompt, base_url.
func NewWeather(params map[string]any) (*WeatherProvider, error) {
	apiKey, err := capability.RequireString(params, "api_key")
	if err != nil {
		return nil, err
	}
	city, err := capability.RequireString(params, "city")
	if err != nil {
		return nil, err
	}

	return &WeatherProvider{
		apiKey:  apiKey,
		city:    city,
		units:   capability.StringParam(params, "units", "metric"),
		prompt:  capability.StringParam(params, "prompt", defaultWeatherPrompt),
		baseURL: capability.StringParam(params, "base_url", "https://api.openweathermap.org"),
		client:  newHTTPClient(),
	}, nil
}

func (p *WeatherProvider) Prompt() string { return p.prompt }

// Fetch returns a one-paragraph plain text report of current conditions.
func (p *WeatherProvider) Fetch(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("q", p.city)
	q.Set("appid", p.apiKey)
	q.Set("units", p.units)

	endpoint := fmt.Sprintf("%s/data/2.5/weather?%s", p.baseURL, q.Encode())

	var res weatherResponse
	if err := getJSON(ctx, p.client, "weather API", endpoint, nil, &res); err != nil {
		return "", err
	}

	temp, speed := p.unitNames()

	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s", res.Name)
	if len(res.Weather) > 0 {
		fmt.Fprintf(&b, ": %s", res.Weather[0].Description)
	}
	fmt.Fprintf(&b, ". Temperature %.1f%s (feels like %.1f%s), range %.1f%s to %.1f%s.",
		res.Main.Temp, temp, res.Main.FeelsLike, temp, res.Main.TempMin, temp, res.Main.TempMax, temp)
	fmt.Fprintf(&b, " Humidity %d%%. Wind %.1f %s.", res.Main.Humidity, res.Wind.Speed, speed)

	return b.String(), nil
}

func (p *WeatherProvider) unitNames() (temp, speed string) {
	if p.units == "imperial" {
		return "°F", "mph"
	}
	return "°C", "m/s"
}
