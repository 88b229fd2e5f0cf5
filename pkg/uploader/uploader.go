// Package uploader reports measurements and camera stills to the plant
// backend account stored in the settings.
package uploader

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/growbox/pkg/sensor"
	"github.com/urmzd/growbox/pkg/settings"
	"github.com/urmzd/growbox/pkg/taskgroup"
)

var (
	// ErrLoginFailed indicates the backend refused the credentials
	ErrLoginFailed = errors.New("backend login failed")
	// ErrRejected indicates the backend refused an upload
	ErrRejected = errors.New("backend rejected upload")
)

// Readings exposes the sampler's newest valid sample.
type Readings interface {
	LastValid() (sensor.Sample, bool)
}

// Snapshotter returns a camera still.
type Snapshotter interface {
	Snapshot(ctx context.Context, now time.Time) ([]byte, error)
}

// Config tunes the upload periods.
type Config struct {
	DataInterval       time.Duration
	ImageInterval      time.Duration
	StaleAfter         time.Duration
	InsecureSkipVerify bool
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(u *Uploader) { u.httpClient = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) { u.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(u *Uploader) { u.log = l }
}

// Uploader posts data and images with a bearer token obtained from the
// backend's login route. The token is reused until the backend answers 401
// or the account changes.
type Uploader struct {
	cfg        Config
	settings   func(ctx context.Context) (settings.Settings, error)
	readings   Readings
	snapshots  Snapshotter
	httpClient *http.Client
	now        func() time.Time
	log        zerolog.Logger

	mu       sync.Mutex
	token    string
	tokenFor settings.APICredentials
}

// New creates an uploader.
func New(cfg Config, settingsFn func(ctx context.Context) (settings.Settings, error), readings Readings, snapshots Snapshotter, opts ...Option) *Uploader {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	u := &Uploader{
		cfg:        cfg,
		settings:   settingsFn,
		readings:   readings,
		snapshots:  snapshots,
		httpClient: &http.Client{Timeout: 30 * time.Second, Transport: transport},
		now:        time.Now,
		log:        log.Logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Tasks returns the data and image upload tasks.
func (u *Uploader) Tasks() []taskgroup.Task {
	return []taskgroup.Task{
		{Name: "data", Period: u.cfg.DataInterval, Run: u.SendData},
		{Name: "image", Period: u.cfg.ImageInterval, Run: u.SendImage},
	}
}

type dataPayload struct {
	TemperatureC float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity"`
	CO2          float64 `json:"co2"`
}

// SendData posts the newest sample. It does nothing without a backend URL
// or a fresh sample.
func (u *Uploader) SendData(ctx context.Context) error {
	creds, ok, err := u.credentials(ctx)
	if err != nil || !ok {
		return err
	}
	sample, ok := u.readings.LastValid()
	if !ok || (u.cfg.StaleAfter > 0 && u.now().Sub(sample.TakenAt) > u.cfg.StaleAfter) {
		u.log.Debug().Msg("No fresh sample to upload")
		return nil
	}

	body, err := json.Marshal(dataPayload{
		TemperatureC: sample.Temperature,
		Humidity:     sample.Humidity,
		CO2:          sample.CO2,
	})
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}
	return u.post(ctx, creds, "/api/data", "application/json", body)
}

// SendImage posts the current camera still as the multipart field "file".
func (u *Uploader) SendImage(ctx context.Context) error {
	creds, ok, err := u.credentials(ctx)
	if err != nil || !ok {
		return err
	}
	frame, err := u.snapshots.Snapshot(ctx, u.now())
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "lastFrame.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(frame); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return u.post(ctx, creds, "/api/image", mw.FormDataContentType(), buf.Bytes())
}

func (u *Uploader) credentials(ctx context.Context) (settings.APICredentials, bool, error) {
	s, err := u.settings(ctx)
	if err != nil {
		return settings.APICredentials{}, false, fmt.Errorf("failed to load settings: %w", err)
	}
	if s.API.URL == "" {
		return settings.APICredentials{}, false, nil
	}
	s.API.URL = strings.TrimRight(s.API.URL, "/")
	return s.API, true, nil
}

// post sends body with a bearer token, logging in again once on 401.
func (u *Uploader) post(ctx context.Context, creds settings.APICredentials, path, contentType string, body []byte) error {
	for attempt := 0; ; attempt++ {
		token, err := u.bearer(ctx, creds)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.URL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := u.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to post %s: %w", path, err)
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized && attempt == 0:
			u.forget()
			continue
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return fmt.Errorf("%w: %s returned %d: %s", ErrRejected, path, resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		u.log.Debug().Str("path", path).Int("bytes", len(body)).Msg("Uploaded")
		return nil
	}
}

func (u *Uploader) bearer(ctx context.Context, creds settings.APICredentials) (string, error) {
	u.mu.Lock()
	if u.token != "" && u.tokenFor == creds {
		token := u.token
		u.mu.Unlock()
		return token, nil
	}
	u.mu.Unlock()

	token, err := u.login(ctx, creds)
	if err != nil {
		return "", err
	}

	u.mu.Lock()
	u.token, u.tokenFor = token, creds
	u.mu.Unlock()
	return token, nil
}

func (u *Uploader) forget() {
	u.mu.Lock()
	u.token = ""
	u.mu.Unlock()
}

func (u *Uploader) login(ctx context.Context, creds settings.APICredentials) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": creds.Username,
		"api_key":  creds.APIKey,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.URL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to log in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrLoginFailed)
	}
	return out.AccessToken, nil
}
