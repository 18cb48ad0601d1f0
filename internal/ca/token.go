package ca

// token.go implements the fabric-ca authorization token and CSR generation.
//
// The token format is b64(certPEM).b64(sig) where sig is an ECDSA-SHA256
// signature over "b64(body).b64(certPEM)". Fabric verifies signatures with
// its BCCSP, which only accepts low-S ECDSA signatures, so S is normalized
// before marshaling.

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
)

// signToken builds the Authorization header value for a token-authenticated
// CA request.
func signToken(registrar Identity, body []byte) (string, error) {
	privateKey, err := parsePrivateKey(registrar.KeyPEM)
	if err != nil {
		return "", err
	}

	b64Body := base64.StdEncoding.EncodeToString(body)
	b64Cert := base64.StdEncoding.EncodeToString(registrar.CertPEM)
	digest := sha256.Sum256([]byte(b64Body + "." + b64Cert))

	r, s, err := ecdsa.Sign(rand.Reader, privateKey, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	// normalize to low-S
	curveOrder := privateKey.Params().N
	halfOrder := new(big.Int).Rsh(curveOrder, 1)
	if s.Cmp(halfOrder) > 0 {
		s = new(big.Int).Sub(curveOrder, s)
	}

	signature, err := asn1.Marshal(struct{ R, S *big.Int }{r, s})
	if err != nil {
		return "", fmt.Errorf("failed to marshal signature: %w", err)
	}

	return b64Cert + "." + base64.StdEncoding.EncodeToString(signature), nil
}

// generateCSR creates a P-256 key pair and a PEM-encoded certificate signing
// request with CN=id. The private key is returned PKCS#8 PEM encoded.
func generateCSR(id string) (csrPEM, keyPEM []byte, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}

	template := x509.CertificateRequest{
		Subject:            pkix.Name{CommonName: id},
		SignatureAlgorithm: x509.ECDSAWithSHA256,
	}

	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &template, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CSR: %w", err)
	}
	csrPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: csrDER})

	keyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	return csrPEM, keyPEM, nil
}

// parsePrivateKey accepts PKCS#8 or SEC1 EC PEM keys.
func parsePrivateKey(keyPEM []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM data in private key")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not ECDSA")
		}
		return ecKey, nil
	}

	ecKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return ecKey, nil
}
