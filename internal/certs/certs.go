// Package certs keeps a self-signed TLS certificate on disk for serving the
// prediction API over HTTPS on a workstation or private network.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const (
	certFileName = "server.crt"
	keyFileName  = "server.key"

	validity = 90 * 24 * time.Hour
	// Certificates closer than this to expiry are replaced.
	renewBefore = 7 * 24 * time.Hour
)

// DefaultHosts are the names a generated certificate always covers.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// Store manages a certificate and key pair in a directory.
type Store struct {
	dir   string
	hosts []string
	now   func() time.Time
}

// NewStore returns a Store writing to dir. Extra hosts (DNS names or IPs)
// are added to DefaultHosts.
func NewStore(dir string, hosts ...string) *Store {
	all := append([]string{}, DefaultHosts...)
	for _, h := range hosts {
		if h != "" && !slices.Contains(all, h) {
			all = append(all, h)
		}
	}
	return &Store{dir: dir, hosts: all, now: time.Now}
}

// CertFile is the path of the PEM certificate.
func (s *Store) CertFile() string { return filepath.Join(s.dir, certFileName) }

// KeyFile is the path of the PEM private key.
func (s *Store) KeyFile() string { return filepath.Join(s.dir, keyFileName) }

// Certificate loads the stored pair, generating a new one when it is
// missing, unreadable, close to expiry or does not cover every host.
func (s *Store) Certificate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(s.CertFile(), s.KeyFile())
	switch {
	case err == nil:
		verr := s.verify(cert)
		if verr == nil {
			return cert, nil
		}
		slog.Info("Regenerating TLS certificate", "reason", verr.Error())
	case errors.Is(err, os.ErrNotExist):
		slog.Info("Generating TLS certificate", "dir", s.dir)
	default:
		slog.Warn("Stored TLS certificate is unreadable, regenerating", "error", err)
	}

	if err := s.generate(); err != nil {
		return tls.Certificate{}, err
	}
	return tls.LoadX509KeyPair(s.CertFile(), s.KeyFile())
}

func (s *Store) verify(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("no certificate in pair")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := s.now()
	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificate not yet valid")
	}
	if now.Add(renewBefore).After(leaf.NotAfter) {
		return fmt.Errorf("certificate expires %s", leaf.NotAfter.Format(time.DateOnly))
	}
	for _, h := range s.hosts {
		if err := leaf.VerifyHostname(h); err != nil {
			return fmt.Errorf("certificate does not cover %s", h)
		}
	}
	return nil
}

func (s *Store) generate() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := s.now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"PFM Classifier"}, CommonName: s.hosts[0]},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range s.hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	if err := writePEM(s.CertFile(), "CERTIFICATE", der); err != nil {
		return err
	}
	return writePEM(s.KeyFile(), "EC PRIVATE KEY", keyDER)
}

func writePEM(path, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
