package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"

	"epaperd/log2"
)

// Netatmo reads outdoor temperature and station pressure from a local
// Netatmo weather station. Measurements from the station take priority
// over the SMHI forecast when both are available.
type Netatmo struct {
	Log    *log2.Log
	config *Config
	http   *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	tokenExpire  time.Time
}

func NewNetatmo(log *log2.Log, config *Config) *Netatmo {
	return &Netatmo{
		Log:          log,
		config:       config,
		http:         &http.Client{Timeout: config.netatmoTimeout()},
		refreshToken: config.Netatmo.RefreshToken,
	}
}

type netatmoTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type netatmoStationsResponse struct {
	Body struct {
		Devices []struct {
			DashboardData struct {
				Pressure float64 `json:"Pressure"`
			} `json:"dashboard_data"`
			Modules []struct {
				Type          string `json:"type"`
				DashboardData struct {
					Temperature float64 `json:"Temperature"`
					Humidity    float64 `json:"Humidity"`
				} `json:"dashboard_data"`
			} `json:"modules"`
		} `json:"devices"`
	} `json:"body"`
}

// Fetch overrides temperature and pressure in the payload with station
// measurements. A failure leaves the SMHI values in place.
func (self *Netatmo) Fetch(ctx context.Context, p *Payload) error {
	token, err := self.token(ctx)
	if err != nil {
		return errors.Annotate(err, "netatmo token")
	}
	req, err := http.NewRequest(http.MethodGet, self.config.Netatmo.BaseURL+"/api/getstationsdata", nil)
	if err != nil {
		return errors.Annotate(err, "netatmo request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := self.http.Do(req)
	if err != nil {
		return errors.Annotate(err, "netatmo fetch")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// force a token refresh on the next iteration
		self.mu.Lock()
		self.accessToken = ""
		self.mu.Unlock()
		return errors.Errorf("netatmo fetch: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("netatmo fetch: status %d", resp.StatusCode)
	}
	var sr netatmoStationsResponse
	if err = json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return errors.Annotate(err, "netatmo decode")
	}
	if len(sr.Body.Devices) == 0 {
		return errors.Errorf("netatmo fetch: no devices")
	}
	dev := sr.Body.Devices[0]
	if dev.DashboardData.Pressure > 0 {
		p.Pressure = dev.DashboardData.Pressure
		p.PressureSource = SourceNetatmo
	}
	for _, m := range dev.Modules {
		if m.Type == "NAModule1" { // outdoor module
			p.Temperature = m.DashboardData.Temperature
			p.TemperatureSource = SourceNetatmo
			break
		}
	}
	return nil
}

func (self *Netatmo) token(ctx context.Context) (string, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.accessToken != "" && time.Now().Before(self.tokenExpire) {
		return self.accessToken, nil
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {self.refreshToken},
		"client_id":     {self.config.Netatmo.ClientID},
		"client_secret": {self.config.Netatmo.ClientSecret},
	}
	req, err := http.NewRequest(http.MethodPost, self.config.Netatmo.BaseURL+"/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Trace(err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := self.http.Do(req)
	if err != nil {
		return "", errors.Trace(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("token refresh: status %d", resp.StatusCode)
	}
	var tr netatmoTokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", errors.Trace(err)
	}
	if tr.AccessToken == "" {
		return "", errors.Errorf("token refresh: empty access token")
	}
	self.accessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		self.refreshToken = tr.RefreshToken
	}
	self.tokenExpire = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second).Add(-time.Minute)
	return self.accessToken, nil
}
