package encryption

import (
	"fmt"
	"io"
)

// NoneEncryptor stores snapshots in plaintext.
type NoneEncryptor struct{}

var (
	_ Encryptor         = NoneEncryptor{}
	_ DecryptionContext = NoneEncryptor{}
)

func (NoneEncryptor) Setup(string) error { return nil }

func (NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}

func (e NoneEncryptor) Unlock(string) (DecryptionContext, error) { return e, nil }

func (NoneEncryptor) IsConfigured() bool { return true }

func (NoneEncryptor) Suffix() string { return "" }

func (NoneEncryptor) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}
