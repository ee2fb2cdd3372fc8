package encryption

import (
	"bytes"
	"testing"

	"pgs-go/internal/config"
)

func TestTestEncryptor_RoundTrip(t *testing.T) {
	e := NewTestEncryptor()

	plaintext := []byte("ledger bytes")
	var ciphertext bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(plaintext), &ciphertext); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(ciphertext.Bytes(), plaintext) {
		t.Error("encrypted output identical to plaintext")
	}

	dc, err := e.Unlock("any")
	if err != nil {
		t.Fatal(err)
	}
	var decrypted bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader(ciphertext.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decrypted.Bytes(), plaintext) {
		t.Errorf("roundtrip mismatch: %q", decrypted.Bytes())
	}
}

func TestTestDecryptionContext_RejectsBadHeader(t *testing.T) {
	dc := &TestDecryptionContext{}
	var out bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader([]byte("garbage data")), &out); err == nil {
		t.Error("expected header validation error")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		encType string
		wantNil bool
		wantErr bool
	}{
		{encType: "", wantNil: true},
		{encType: "none", wantNil: true},
		{encType: "age"},
		{encType: "test"},
		{encType: "rot13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("type "+tt.encType, func(t *testing.T) {
			enc, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.encType})
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (enc == nil) != tt.wantNil {
				t.Errorf("enc == nil is %v, want %v", enc == nil, tt.wantNil)
			}
		})
	}
}
