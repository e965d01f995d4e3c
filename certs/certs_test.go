package certs

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_GeneratesSelfSignedPair(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert", "server.crt")
	keyFile := filepath.Join(dir, "cert", "server.key")

	cfg, err := Load(certFile, keyFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Certificates) != 1 {
		t.Fatalf("Expected 1 certificate, got %d", len(cfg.Certificates))
	}

	data, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatalf("Certificate file was not written: %v", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		t.Fatal("Certificate file is not PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("Generated certificate does not parse: %v", err)
	}

	if cert.Subject.CommonName != "localhost" {
		t.Errorf("Expected CN localhost, got %s", cert.Subject.CommonName)
	}
}

func TestLoad_ReusesExistingPair(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	if _, err := Load(certFile, keyFile); err != nil {
		t.Fatalf("First load failed: %v", err)
	}

	first, _ := os.ReadFile(certFile)

	if _, err := Load(certFile, keyFile); err != nil {
		t.Fatalf("Second load failed: %v", err)
	}

	second, _ := os.ReadFile(certFile)
	if string(first) != string(second) {
		t.Error("Expected existing certificate to be reused, not regenerated")
	}
}

func TestLoad_RejectsCorruptPair(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	os.WriteFile(certFile, []byte("garbage"), 0644)
	os.WriteFile(keyFile, []byte("garbage"), 0600)

	if _, err := Load(certFile, keyFile); err == nil {
		t.Error("Expected error for corrupt certificate pair")
	}
}
