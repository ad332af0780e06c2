// Package keygen generates RSA key pairs for instance access.
package keygen

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds a generated RSA key pair, the private key is PEM encoded
// and the public key is in authorized_keys format
type KeyPair struct {
	PrivateKey  string
	PublicKey   string
	Fingerprint string
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit
// size. Common bit sizes are 2048 (minimum recommended) and 4096 (high
// security).
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	err = privateKey.Validate()
	if err != nil {
		return nil, fmt.Errorf("generated private key failed validation: %w", err)
	}

	privDER := x509.MarshalPKCS1PrivateKey(privateKey)
	privBlock := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: privDER,
	}
	privateKeyPEM := pem.EncodeToMemory(&privBlock)

	publicRsaKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	pubKeyBytes := ssh.MarshalAuthorizedKey(publicRsaKey)

	return &KeyPair{
		PrivateKey:  string(privateKeyPEM),
		PublicKey:   string(pubKeyBytes),
		Fingerprint: Fingerprint(publicRsaKey),
	}, nil
}

// Fingerprint returns the legacy MD5 fingerprint for the given public
// key, formatted as colon separated hex pairs
func Fingerprint(key ssh.PublicKey) string {
	sum := md5.Sum(key.Marshal())

	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02x", b)
	}

	return strings.Join(parts, ":")
}

// FingerprintAuthorizedKey parses a public key in authorized_keys format
// and returns its fingerprint
func FingerprintAuthorizedKey(pub []byte) (string, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to parse public key: %w", err)
	}

	return Fingerprint(key), nil
}
