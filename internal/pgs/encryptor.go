package pgs

import "io"

// Encryptor handles encryption of ledger snapshots before they leave the
// machine. Encryption uses the public key only; decryption requires a
// passphrase to unlock the private key for the session.
type Encryptor interface {
	// Setup performs one-time key generation: creates a key pair, stores
	// the public key in plaintext, and encrypts the private key with the
	// provided passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key using the passphrase and returns a
	// DecryptionContext valid for the session. Fails if the passphrase is
	// incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for the
// duration of a restore. The unlocked key is never written to disk.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
