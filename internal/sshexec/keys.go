// Package sshexec runs shell commands on a computer over SSH and handles the
// ed25519 keys used to reach it.
package sshexec

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyPair is an in-memory ed25519 key pair.
type KeyPair struct {
	// Signer authenticates SSH connections.
	Signer ssh.Signer
	// AuthorizedKey is the public key in authorized_keys format, without a
	// trailing newline.
	AuthorizedKey string
	// PrivateKeyPEM is the private key in OpenSSH PEM format.
	PrivateKeyPEM []byte
}

// GenerateKeyPair creates a fresh ed25519 key pair labelled with comment.
func GenerateKeyPair(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to convert public key: %w", err)
	}
	authorized := strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(sshPub)), "\n")
	if comment != "" {
		authorized += " " + comment
	}

	return &KeyPair{
		Signer:        signer,
		AuthorizedKey: authorized,
		PrivateKeyPEM: pem.EncodeToMemory(block),
	}, nil
}

// PublicKeyInfo describes a parsed authorized_keys line.
type PublicKeyInfo struct {
	Type        string
	Comment     string
	Fingerprint string
	// Line is the normalized authorized_keys line.
	Line string
}

// ParsePublicKey parses the first authorized_keys line in text, such as the
// output of `cat ~/.ssh/id_ed25519.pub`.
func ParsePublicKey(text string) (*PublicKeyInfo, error) {
	pub, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(text)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	line := strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(pub)), "\n")
	if comment != "" {
		line += " " + comment
	}
	return &PublicKeyInfo{
		Type:        pub.Type(),
		Comment:     comment,
		Fingerprint: ssh.FingerprintSHA256(pub),
		Line:        line,
	}, nil
}
