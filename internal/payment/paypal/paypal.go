package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shoplite/shoplite/internal/constants"
)

var (
	ErrConfigInvalid       = errors.New("paypal config invalid")
	ErrAuthFailed          = errors.New("paypal auth failed")
	ErrRequestFailed       = errors.New("paypal request failed")
	ErrResponseInvalid     = errors.New("paypal response invalid")
	ErrWebhookVerifyFailed = errors.New("paypal webhook verify failed")
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
	defaultTimeout = 12 * time.Second

	tokenPath  = "/v1/oauth2/token"
	verifyPath = "/v1/notifications/verify-webhook-signature"
)

// Config PayPal 渠道配置。
type Config struct {
	Mode         string `json:"mode"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	BaseURL      string `json:"base_url"`
	WebhookID    string `json:"webhook_id"`
}

// Normalize 规整配置, 按 mode 补全默认 API 地址。
func (c *Config) Normalize() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode == "" {
		c.Mode = constants.PaypalModeSandbox
	}
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		if c.Mode == constants.PaypalModeLive {
			c.BaseURL = liveBaseURL
		} else {
			c.BaseURL = sandboxBaseURL
		}
	}
	c.WebhookID = strings.TrimSpace(c.WebhookID)
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	for field, value := range map[string]string{
		"client_id":     cfg.ClientID,
		"client_secret": cfg.ClientSecret,
		"webhook_id":    cfg.WebhookID,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrConfigInvalid, field)
		}
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.BaseURL)); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// verifyRequest 验签接口请求体, webhook_event 透传原始通知。
type verifyRequest struct {
	TransmissionID   string          `json:"transmission_id"`
	TransmissionTime string          `json:"transmission_time"`
	CertURL          string          `json:"cert_url"`
	AuthAlgo         string          `json:"auth_algo"`
	TransmissionSig  string          `json:"transmission_sig"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

func (r verifyRequest) complete() error {
	missing := ""
	switch {
	case r.TransmissionID == "":
		missing = "transmission_id"
	case r.TransmissionTime == "":
		missing = "transmission_time"
	case r.CertURL == "":
		missing = "cert_url"
	case r.AuthAlgo == "":
		missing = "auth_algo"
	case r.TransmissionSig == "":
		missing = "transmission_sig"
	}
	if missing != "" {
		return fmt.Errorf("%w: missing %s", ErrWebhookVerifyFailed, missing)
	}
	return nil
}

// VerifyWebhookSignature 调用 PayPal 校验接口验证 Webhook 签名。
// 传输头不全时直接拒绝, 不发起任何网络请求; 任何一步失败都视为验证未通过。
func VerifyWebhookSignature(ctx context.Context, cfg *Config, headers http.Header, eventBody []byte) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	verify := verifyRequest{
		TransmissionID:   strings.TrimSpace(headers.Get("Paypal-Transmission-Id")),
		TransmissionTime: strings.TrimSpace(headers.Get("Paypal-Transmission-Time")),
		CertURL:          strings.TrimSpace(headers.Get("Paypal-Cert-Url")),
		AuthAlgo:         strings.TrimSpace(headers.Get("Paypal-Auth-Algo")),
		TransmissionSig:  strings.TrimSpace(headers.Get("Paypal-Transmission-Sig")),
		WebhookID:        cfg.WebhookID,
		WebhookEvent:     json.RawMessage(eventBody),
	}
	if err := verify.complete(); err != nil {
		return err
	}

	token, err := fetchAccessToken(ctx, cfg)
	if err != nil {
		return err
	}

	status, body, err := postJSON(ctx, cfg.BaseURL+verifyPath, token, verify)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: verify status %d", ErrWebhookVerifyFailed, status)
	}

	var decoded struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("%w: decode verify response failed", ErrWebhookVerifyFailed)
	}
	if !strings.EqualFold(strings.TrimSpace(decoded.VerificationStatus), "SUCCESS") {
		return fmt.Errorf("%w: verify result is not success", ErrWebhookVerifyFailed)
	}
	return nil
}

func fetchAccessToken(ctx context.Context, cfg *Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request failed", ErrAuthFailed)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request token failed", ErrAuthFailed)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response failed", ErrAuthFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token status %d", ErrAuthFailed, resp.StatusCode)
	}

	var decoded struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode token response failed", ErrAuthFailed)
	}
	if strings.TrimSpace(decoded.AccessToken) == "" {
		return "", fmt.Errorf("%w: access_token is empty", ErrAuthFailed)
	}
	return decoded.AccessToken, nil
}

func postJSON(ctx context.Context, fullURL, token string, payload interface{}) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(string(encoded)))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return resp.StatusCode, body, nil
}
