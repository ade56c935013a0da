// Package gateway talks to the MyFitGuide REST API.
// Every call is one request: no retry, no batching.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"myfitguide/internal/domain"
	"myfitguide/internal/metrics"

	"go.uber.org/zap"
)

const (
	opRegister      = "register"
	opLogin         = "login"
	opSubmitDiet    = "submit_diet"
	opSubmitRoutine = "submit_routine"
	opFetchProfile  = "fetch_profile"

	maxBodyBytes = 1 << 20
)

// AuthResult is a successful login or registration
type AuthResult struct {
	Identity domain.UserIdentity
	// Raw is the response body verbatim, persisted into the local profile cache
	Raw json.RawMessage
}

type Client struct {
	baseURL    string // e.g. http://localhost:3000/MyFitGuide
	httpClient *http.Client
	metrics    *metrics.Manager
	logger     *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client, metricsManager *metrics.Manager, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    metricsManager,
		logger:     logger,
	}
}

// Register creates a user
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*AuthResult, error) {
	body, err := c.do(ctx, opRegister, http.MethodPost, "/Usuarios", reg)
	if err != nil {
		return nil, err
	}

	result, err := decodeAuth(opRegister, body)
	if err != nil {
		return nil, err
	}

	// the backend does not always echo the submitted fields
	if result.Identity.Nombre == "" {
		result.Identity.Nombre = reg.Nombre
	}
	if result.Identity.FechaNacimiento == nil {
		if birth, ok := domain.ParseBirthDate(reg.FechaNacimiento); ok {
			result.Identity.FechaNacimiento = &birth
		}
	}
	return result, nil
}

// Login authenticates a user
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*AuthResult, error) {
	body, err := c.do(ctx, opLogin, http.MethodPost, "/Usuarios/login", creds)
	if err != nil {
		return nil, err
	}
	return decodeAuth(opLogin, body)
}

// SubmitDiet stores the diet profile; only the status is consumed
func (c *Client) SubmitDiet(ctx context.Context, profile domain.DietProfile) error {
	_, err := c.do(ctx, opSubmitDiet, http.MethodPost, "/prueba-dieta", profile)
	return err
}

// SubmitRoutine stores the routine preferences; only the status is consumed
func (c *Client) SubmitRoutine(ctx context.Context, prefs domain.RoutinePreferences) error {
	_, err := c.do(ctx, opSubmitRoutine, http.MethodPost, "/prueba-rutina", prefs)
	return err
}

// FetchProfile returns the aggregated usuario/dieta/rutina view of a user
func (c *Client) FetchProfile(ctx context.Context, userID domain.UserID) (*domain.AggregatedProfile, error) {
	if userID.IsZero() {
		return nil, &APIError{Op: opFetchProfile, Err: ErrNoIdentifier}
	}

	body, err := c.do(ctx, opFetchProfile, http.MethodGet, "/usuario-completo/"+url.PathEscape(userID.String()), nil)
	if err != nil {
		return nil, err
	}

	profile := &domain.AggregatedProfile{}
	if err := json.Unmarshal(body, profile); err != nil {
		return nil, &APIError{Op: opFetchProfile, Err: fmt.Errorf("unmarshal profile: %w", err)}
	}
	return profile, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (body []byte, err error) {
	start := time.Now()
	status := 0
	defer func() {
		c.observe(op, status, time.Since(start), err)
	}()

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &APIError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, Err: fmt.Errorf("http client do: %w", err)}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APIError{Op: op, StatusCode: status, Err: fmt.Errorf("read response: %w", err)}
	}

	if status < 200 || status >= 300 {
		var envelope errorEnvelope
		_ = json.Unmarshal(respBytes, &envelope)
		return nil, &APIError{Op: op, StatusCode: status, Message: strings.TrimSpace(envelope.Message)}
	}

	return respBytes, nil
}

func (c *Client) observe(op string, status int, took time.Duration, err error) {
	statusLabel := "error"
	if status != 0 {
		statusLabel = strconv.Itoa(status)
	}

	if c.metrics != nil {
		c.metrics.CounterAPIRequests.WithLabelValues(op, statusLabel).Inc()
		c.metrics.HistAPIRequestDuration.WithLabelValues(op).Observe(took.Seconds())
	}

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("status", statusLabel),
		zap.Duration("took", took),
	}
	if err != nil {
		c.logger.Warn("API request failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("API request completed", fields...)
}

func decodeAuth(op string, body []byte) (*AuthResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		if err == nil {
			err = fmt.Errorf("empty response body")
		}
		return nil, &APIError{Op: op, Err: fmt.Errorf("unmarshal user: %w", err)}
	}

	id, err := userIDFromFields(fields)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	var section domain.Section
	if err := json.Unmarshal(body, &section); err != nil {
		return nil, &APIError{Op: op, Err: fmt.Errorf("unmarshal user: %w", err)}
	}

	identity := domain.UserIdentity{
		ID:       id,
		Nombre:   optional(section, "nombre"),
		Objetivo: optional(section, "objetivo"),
		Genero:   optional(section, "genero"),
		Altura:   optionalFloat(section, "altura"),
		Peso:     optionalFloat(section, "peso"),
	}
	if birth, ok := domain.ParseBirthDate(optional(section, "fechaNacimiento")); ok {
		identity.FechaNacimiento = &birth
	}

	return &AuthResult{Identity: identity, Raw: json.RawMessage(body)}, nil
}

func optional(s domain.Section, key string) string {
	if v := s.Value(key); v != domain.NotAvailable {
		return v
	}
	return ""
}

func optionalFloat(s domain.Section, key string) float64 {
	f, err := strconv.ParseFloat(optional(s, key), 64)
	if err != nil {
		return 0
	}
	return f
}
