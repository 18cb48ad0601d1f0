// Package ca is a minimal client for the Fabric CA REST API.
//
// It covers the two endpoints this gateway needs: /api/v1/register (token
// authenticated, performed by an enrolled registrar) and /api/v1/enroll
// (basic authenticated, exchanges an enrollment secret for a signed
// certificate). Key pairs are generated locally; the CA only ever sees the
// CSR.
package ca

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Identity is an enrolled identity used to authenticate registrar calls.
type Identity struct {
	CertPEM []byte
	KeyPEM  []byte
}

// RegistrationRequest registers a new identity with the CA.
type RegistrationRequest struct {
	Name           string `json:"id"`
	Type           string `json:"type"`
	Secret         string `json:"secret,omitempty"`
	MaxEnrollments int    `json:"max_enrollments"`
	Affiliation    string `json:"affiliation"`
	CAName         string `json:"caname,omitempty"`
}

// Error is a failure reported by the CA server.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("fabric-ca error %d: %s", e.Code, e.Message)
}

// IsAlreadyRegistered reports whether err is the CA rejecting a registration
// because the identity already exists. Callers treat this as non-fatal: a
// previous attempt may have registered the identity but failed before
// enrolling it.
func IsAlreadyRegistered(err error) bool {
	var caErr *Error
	if !errors.As(err, &caErr) {
		return false
	}
	return strings.Contains(caErr.Message, "is already registered")
}

// Client talks to one Fabric CA server.
type Client struct {
	baseURL    string
	caName     string
	httpClient *http.Client
}

// NewClient creates a CA client. tlsCertPath may be empty when the CA serves
// plain HTTP or uses a publicly trusted certificate.
func NewClient(baseURL, caName, tlsCertPath string, timeout time.Duration) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if tlsCertPath != "" {
		pemData, err := os.ReadFile(tlsCertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA TLS certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("no certificates found in %s", tlsCertPath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		caName:  caName,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// Register registers a new identity using the registrar's credentials and
// returns the enrollment secret the CA associated with it.
func (c *Client) Register(ctx context.Context, registrar Identity, req RegistrationRequest) (string, error) {
	if req.CAName == "" {
		req.CAName = c.caName
	}
	if req.Type == "" {
		req.Type = "client"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal registration request: %w", err)
	}

	token, err := signToken(registrar, body)
	if err != nil {
		return "", fmt.Errorf("failed to sign registration token: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/register", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", token)

	var result struct {
		Secret string `json:"secret"`
	}
	if err := c.do(httpReq, &result); err != nil {
		return "", err
	}
	return result.Secret, nil
}

// Enroll generates a fresh P-256 key pair, submits a CSR for id, and returns
// the signed certificate and private key, both PEM encoded.
func (c *Client) Enroll(ctx context.Context, id, secret string) (certPEM, keyPEM []byte, err error) {
	csrPEM, keyPEM, err := generateCSR(id)
	if err != nil {
		return nil, nil, err
	}

	enrollReq := struct {
		CertificateRequest string `json:"certificate_request"`
		CAName             string `json:"caname,omitempty"`
	}{
		CertificateRequest: string(csrPEM),
		CAName:             c.caName,
	}

	body, err := json.Marshal(enrollReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal enrollment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/enroll", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(id, secret)

	var result struct {
		Cert string `json:"Cert"`
	}
	if err := c.do(httpReq, &result); err != nil {
		return nil, nil, err
	}

	certPEM, err = base64.StdEncoding.DecodeString(result.Cert)
	if err != nil {
		return nil, nil, fmt.Errorf("CA returned a malformed certificate: %w", err)
	}

	return certPEM, keyPEM, nil
}

// serverResponse is the envelope every fabric-ca endpoint returns.
type serverResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Errors  []Error         `json:"errors"`
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("CA request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read CA response: %w", err)
	}

	var envelope serverResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("CA returned a malformed response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		if len(envelope.Errors) > 0 {
			return &envelope.Errors[0]
		}
		return fmt.Errorf("CA request failed with status %d", resp.StatusCode)
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("CA returned a malformed result: %w", err)
		}
	}
	return nil
}
