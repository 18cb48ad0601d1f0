package ca

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testRegistrar creates a self-signed ECDSA identity for token-authenticated
// calls.
func testRegistrar(t *testing.T) Identity {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "admin"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	return Identity{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}
}

func respond(w http.ResponseWriter, status int, envelope serverResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func TestRegister(t *testing.T) {
	registrar := testRegistrar(t)

	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		respond(w, http.StatusCreated, serverResponse{
			Success: true,
			Result:  json.RawMessage(`{"secret":"assigned-secret"}`),
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "ca-org1", "", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	secret, err := client.Register(context.Background(), registrar, RegistrationRequest{
		Name:        "appUser",
		Secret:      "assigned-secret",
		Affiliation: "org1.department1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if secret != "assigned-secret" {
		t.Errorf("secret = %q", secret)
	}

	var req RegistrationRequest
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if req.Name != "appUser" || req.Affiliation != "org1.department1" {
		t.Errorf("request = %+v", req)
	}
	if req.Type != "client" {
		t.Errorf("type not defaulted: %q", req.Type)
	}
	if req.CAName != "ca-org1" {
		t.Errorf("caname not defaulted: %q", req.CAName)
	}

	verifyToken(t, registrar, gotAuth, gotBody)
}

// verifyToken checks the Authorization header the way the CA server does:
// decode the cert from the first segment and verify the ECDSA signature in
// the second segment over b64(body).b64(cert).
func verifyToken(t *testing.T, registrar Identity, token string, body []byte) {
	t.Helper()

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		t.Fatalf("token has %d segments, want 2", len(parts))
	}

	certPEM, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("token cert segment is not base64: %v", err)
	}
	if string(certPEM) != string(registrar.CertPEM) {
		t.Error("token does not carry the registrar certificate")
	}

	block, _ := pem.Decode(certPEM)
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	publicKey := cert.PublicKey.(*ecdsa.PublicKey)

	sigDER, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("token signature segment is not base64: %v", err)
	}
	var sig struct{ R, S *big.Int }
	if _, err := asn1.Unmarshal(sigDER, &sig); err != nil {
		t.Fatalf("signature is not ASN.1: %v", err)
	}

	digest := sha256.Sum256([]byte(base64.StdEncoding.EncodeToString(body) + "." + parts[0]))
	if !ecdsa.Verify(publicKey, digest[:], sig.R, sig.S) {
		t.Error("token signature does not verify")
	}

	halfOrder := new(big.Int).Rsh(publicKey.Params().N, 1)
	if sig.S.Cmp(halfOrder) > 0 {
		t.Error("signature S is not normalized to low-S")
	}
}

func TestRegisterAlreadyRegistered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusInternalServerError, serverResponse{
			Success: false,
			Errors:  []Error{{Code: 74, Message: "Identity 'appUser' is already registered"}},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "ca-org1", "", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Register(context.Background(), testRegistrar(t), RegistrationRequest{Name: "appUser"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAlreadyRegistered(err) {
		t.Errorf("IsAlreadyRegistered() = false for %v", err)
	}

	var caErr *Error
	if !errors.As(err, &caErr) || caErr.Code != 74 {
		t.Errorf("error = %v", err)
	}
}

func TestIsAlreadyRegisteredOtherErrors(t *testing.T) {
	if IsAlreadyRegistered(errors.New("connection refused")) {
		t.Error("plain error classified as already registered")
	}
	if IsAlreadyRegistered(&Error{Code: 20, Message: "Authentication failure"}) {
		t.Error("auth failure classified as already registered")
	}
}

func TestEnroll(t *testing.T) {
	caCertPEM := testRegistrar(t).CertPEM

	var gotUser, gotSecret string
	var gotCSR string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/enroll" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotUser, gotSecret, _ = r.BasicAuth()

		var req struct {
			CertificateRequest string `json:"certificate_request"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotCSR = req.CertificateRequest

		respond(w, http.StatusCreated, serverResponse{
			Success: true,
			Result: json.RawMessage(`{"Cert":"` +
				base64.StdEncoding.EncodeToString(caCertPEM) + `"}`),
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "ca-org1", "", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := client.Enroll(context.Background(), "appUser", "user-secret")
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	if gotUser != "appUser" || gotSecret != "user-secret" {
		t.Errorf("basic auth = %s:%s", gotUser, gotSecret)
	}

	block, _ := pem.Decode([]byte(gotCSR))
	if block == nil || block.Type != "CERTIFICATE REQUEST" {
		t.Fatalf("request carried no CSR: %q", gotCSR)
	}
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		t.Fatalf("CSR does not parse: %v", err)
	}
	if csr.Subject.CommonName != "appUser" {
		t.Errorf("CSR CN = %q, want appUser", csr.Subject.CommonName)
	}

	if string(certPEM) != string(caCertPEM) {
		t.Error("returned certificate does not match CA response")
	}

	// the private key must pair with the CSR's public key
	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		t.Fatalf("returned key does not parse: %v", err)
	}
	csrKey := csr.PublicKey.(*ecdsa.PublicKey)
	if !key.PublicKey.Equal(csrKey) {
		t.Error("private key does not match the CSR public key")
	}
}

func TestEnrollAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusUnauthorized, serverResponse{
			Success: false,
			Errors:  []Error{{Code: 20, Message: "Authentication failure"}},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "ca-org1", "", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = client.Enroll(context.Background(), "appUser", "wrong-secret")
	if err == nil {
		t.Fatal("expected error")
	}
	var caErr *Error
	if !errors.As(err, &caErr) || caErr.Code != 20 {
		t.Errorf("error = %v", err)
	}
}

func TestDoMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "ca-org1", "", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := client.Enroll(context.Background(), "appUser", "secret"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}
