package weather

import "time"

type Config struct { //nolint:maligned
	Location string `hcl:"location"`

	SMHI struct {
		Enabled    bool    `hcl:"enabled"`
		Latitude   float64 `hcl:"latitude"`
		Longitude  float64 `hcl:"longitude"`
		BaseURL    string  `hcl:"base_url"`
		TimeoutSec int     `hcl:"timeout_sec"`
	} `hcl:"smhi"`

	Netatmo struct {
		Enabled      bool   `hcl:"enabled"`
		ClientID     string `hcl:"client_id"`
		ClientSecret string `hcl:"client_secret"`
		RefreshToken string `hcl:"refresh_token"`
		BaseURL      string `hcl:"base_url"`
		TimeoutSec   int    `hcl:"timeout_sec"`
	} `hcl:"netatmo"`

	Trend struct {
		WindowHours    float64 `hcl:"window_hours"`
		MinHours       float64 `hcl:"min_hours"`
		ThresholdHPa   float64 `hcl:"threshold_hpa"`
		RetentionHours float64 `hcl:"retention_hours"`
	} `hcl:"trend"`
}

const (
	defaultSMHIBase    = "https://opendata-download-metfcst.smhi.se"
	defaultNetatmoBase = "https://api.netatmo.com"
	defaultHTTPTimeout = 10 * time.Second

	defaultTrendWindow    = 3.0 // hours
	defaultTrendMin       = 1.5 // hours of history before classifying
	defaultTrendThreshold = 1.5 // hPa per window
	defaultTrendRetention = 24.0 // hours of samples kept
)

func (self *Config) Normalize() {
	if self.SMHI.BaseURL == "" {
		self.SMHI.BaseURL = defaultSMHIBase
	}
	if self.Netatmo.BaseURL == "" {
		self.Netatmo.BaseURL = defaultNetatmoBase
	}
	if self.Trend.WindowHours <= 0 {
		self.Trend.WindowHours = defaultTrendWindow
	}
	if self.Trend.MinHours <= 0 {
		self.Trend.MinHours = defaultTrendMin
	}
	if self.Trend.ThresholdHPa <= 0 {
		self.Trend.ThresholdHPa = defaultTrendThreshold
	}
	if self.Trend.RetentionHours <= 0 {
		self.Trend.RetentionHours = defaultTrendRetention
	}
}

func (self *Config) smhiTimeout() time.Duration {
	if self.SMHI.TimeoutSec > 0 {
		return time.Duration(self.SMHI.TimeoutSec) * time.Second
	}
	return defaultHTTPTimeout
}

func (self *Config) netatmoTimeout() time.Duration {
	if self.Netatmo.TimeoutSec > 0 {
		return time.Duration(self.Netatmo.TimeoutSec) * time.Second
	}
	return defaultHTTPTimeout
}
