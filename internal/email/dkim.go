package email

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/toorop/go-dkim"
)

// DKIMSigner handles signing outgoing emails with DKIM
type DKIMSigner struct {
	privateKey    *rsa.PrivateKey
	privateKeyPEM []byte
	domain        string
	selector      string
}

// NewDKIMSigner creates a new DKIM signer from a PEM key file
func NewDKIMSigner(domain, selector, keyPath string) (*DKIMSigner, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	return NewDKIMSignerFromPEM(domain, selector, keyData)
}

func NewDKIMSignerFromPEM(domain, selector string, keyData []byte) (*DKIMSigner, error) {
	if domain == "" {
		return nil, errors.New("dkim domain is empty")
	}
	privateKey, err := ParsePrivateKey(keyData)
	if err != nil {
		return nil, err
	}
	return &DKIMSigner{
		privateKey:    privateKey,
		privateKeyPEM: keyData,
		domain:        domain,
		selector:      selector,
	}, nil
}

func (s *DKIMSigner) Domain() string   { return s.domain }
func (s *DKIMSigner) Selector() string { return s.selector }

func (s *DKIMSigner) PublicKey() *rsa.PublicKey { return &s.privateKey.PublicKey }

// SignMessage adds a DKIM signature to an email message
func (s *DKIMSigner) SignMessage(message []byte) ([]byte, error) {
	options := dkim.NewSigOptions()
	options.PrivateKey = s.privateKeyPEM
	options.Domain = s.domain
	options.Selector = s.selector
	options.SignatureExpireIn = 3600
	options.Headers = []string{"from", "to", "subject", "date"}
	options.AddSignatureTimestamp = true
	options.Canonicalization = "relaxed/relaxed"

	signed := append([]byte(nil), message...)
	if err := dkim.Sign(&signed, options); err != nil {
		return nil, err
	}
	return signed, nil
}

/* ---------- keys ---------- */

// ParsePrivateKey decodes a PKCS#1 "RSA PRIVATE KEY" PEM block.
func ParsePrivateKey(keyData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyData)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, errors.New("failed to decode PEM block containing private key")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// GenerateKey creates an RSA key and returns it PEM encoded.
func GenerateKey(bits int) ([]byte, *rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), key, nil
}

// PublicKeyRecord formats the TXT record value publishing pub.
func PublicKeyRecord(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return "v=DKIM1; k=rsa; p=" + base64.StdEncoding.EncodeToString(der), nil
}

// RecordName is the DNS name holding the key for selector and domain.
func RecordName(selector, domain string) string {
	return selector + "._domainkey." + domain
}

// LookupPublicKey finds the published DKIM public key for a domain
func (r Resolver) LookupPublicKey(selector, domain string) ([]byte, error) {
	record := RecordName(selector, domain)
	records, err := r.TXT(record)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no DKIM record found for %s", record)
	}

	for _, dkimRecord := range records {
		for _, part := range strings.Split(dkimRecord, ";") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "p=") {
				decodedKey, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(part, "p="))
				if err != nil {
					return nil, fmt.Errorf("failed to decode public key: %w", err)
				}
				return decodedKey, nil
			}
		}
	}
	return nil, fmt.Errorf("no public key found in DKIM record for %s", record)
}

// ErrKeyMismatch is returned when the published key differs from the local one.
var ErrKeyMismatch = errors.New("published DKIM key does not match the configured key")

// CheckPublishedKey compares the key in DNS with the signer's key.
func (r Resolver) CheckPublishedKey(s *DKIMSigner) error {
	published, err := r.LookupPublicKey(s.selector, s.domain)
	if err != nil {
		return err
	}
	local, err := x509.MarshalPKIXPublicKey(s.PublicKey())
	if err != nil {
		return err
	}
	if !bytes.Equal(published, local) {
		return ErrKeyMismatch
	}
	return nil
}
