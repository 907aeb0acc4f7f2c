package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/lavanda/internal/models"
)

// CallVerifier abstracts the call-verification provider: allocate a check
// with a callback number, then poll its status. The concrete vendor
// protocol stays behind this interface.
type CallVerifier interface {
	RequestCall(phone string) (*CallCheck, error)
	CheckStatus(checkID string) (string, error)
}

// CallCheck is one verification attempt allocated by the provider.
type CallCheck struct {
	CheckID   string
	CallPhone string
}

// ErrCallProviderDisabled is returned when the integration is switched off.
var ErrCallProviderDisabled = errors.New("call-verification provider is disabled")

// CallVerifyClient talks to the call-verification provider over HTTP.
type CallVerifyClient struct {
	baseURL    string
	apiKey     string
	enabled    bool
	httpClient *http.Client
}

// NewCallVerifyClient constructs a provider client.
func NewCallVerifyClient(baseURL, apiKey string, enabled bool) *CallVerifyClient {
	return &CallVerifyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		enabled:    enabled,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type callRequestResponse struct {
	CheckID   string `json:"check_id"`
	CallPhone string `json:"call_phone"`
}

// RequestCall allocates a verification attempt for the phone and returns
// the number the user has to dial.
func (c *CallVerifyClient) RequestCall(phone string) (*CallCheck, error) {
	body, err := c.do(http.MethodPost, "/call/request", map[string]string{"phone": phone})
	if err != nil {
		return nil, err
	}

	var resp callRequestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("call request unmarshal: %w", err)
	}

	if resp.CheckID == "" || resp.CallPhone == "" {
		return nil, errors.New("call request: incomplete provider response")
	}

	return &CallCheck{CheckID: resp.CheckID, CallPhone: resp.CallPhone}, nil
}

type callStatusResponse struct {
	Status string `json:"status"`
}

// CheckStatus returns the provider's view of the attempt, mapped to the
// local status constants.
func (c *CallVerifyClient) CheckStatus(checkID string) (string, error) {
	body, err := c.do(http.MethodGet, "/call/status?check_id="+checkID, nil)
	if err != nil {
		return "", err
	}

	var resp callStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("call status unmarshal: %w", err)
	}

	switch resp.Status {
	case "confirmed", "verified":
		return models.VerificationVerified, nil
	case "expired":
		return models.VerificationExpired, nil
	case "failed":
		return models.VerificationFailed, nil
	default:
		return models.VerificationPending, nil
	}
}

func (c *CallVerifyClient) do(method, path string, payload any) ([]byte, error) {
	if !c.enabled {
		return nil, ErrCallProviderDisabled
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("call provider marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("call provider request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("call provider: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
