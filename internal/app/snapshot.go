package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"photocat/internal/encryption"
	"photocat/internal/vault"
)

// openVault returns the named vault, or the first configured one when name
// is empty. Vaults are built on first use and kept for the App's lifetime.
func (a *App) openVault(ctx context.Context, name string) (vault.Vault, error) {
	if len(a.cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	for _, vc := range a.cfg.Vaults {
		if name != "" && vc.Name != name {
			continue
		}
		if v, ok := a.vaults[vc.Name]; ok {
			return v, nil
		}
		v, err := vault.NewVaultFromConfig(ctx, vc)
		if err != nil {
			return nil, fmt.Errorf("creating vault %s: %w", vc.Name, err)
		}
		a.vaults[vc.Name] = v
		return v, nil
	}
	return nil, fmt.Errorf("vault %q not configured", name)
}

// SetupKeys creates the snapshot encryption keys.
func (a *App) SetupKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return a.op.Fail(fmt.Errorf("setting up encryption keys: %w", err))
	}
	return nil
}

// Encryptor returns the configured snapshot encryptor.
func (a *App) Encryptor() encryption.Encryptor { return a.encryptor }

// Snapshot writes a consistent copy of the catalog, encrypted when
// configured, to a vault and returns the snapshot name.
func (a *App) Snapshot(ctx context.Context, vaultName string) (string, error) {
	name, err := a.snapshot(ctx, vaultName)
	return name, a.op.Fail(err)
}

func (a *App) snapshot(ctx context.Context, vaultName string) (string, error) {
	v, err := a.openVault(ctx, vaultName)
	if err != nil {
		return "", err
	}
	if err := v.ValidateSetup(ctx); err != nil {
		return "", fmt.Errorf("vault %s: %w", v.Name(), err)
	}
	if !a.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption keys not set up: run 'photocat keys init'")
	}

	tmpDir, err := os.MkdirTemp("", "photocat-snapshot-")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plain := filepath.Join(tmpDir, "catalog.db")
	err = a.run(ctx, "backup", func(ctx context.Context) error {
		return a.service.Backup(ctx, plain)
	})
	if err != nil {
		return "", err
	}

	sealed := filepath.Join(tmpDir, "catalog.out")
	if err := encryptFile(a.encryptor, plain, sealed); err != nil {
		return "", err
	}

	f, err := os.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	suffix := a.ids.New()
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	name := a.now().UTC().Format("20060102T150405Z") + "-" + suffix + ".db" + a.encryptor.Suffix()
	if err := v.Put(ctx, a.cfg.CatalogID, name, f, info.Size()); err != nil {
		return "", fmt.Errorf("storing snapshot in vault %s: %w", v.Name(), err)
	}
	a.logger.Info("snapshot stored", "vault", v.Name(), "name", name, "size", info.Size())
	return name, nil
}

func encryptFile(enc encryption.Encryptor, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening catalog copy: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	if err := enc.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	return nil
}

// Snapshots lists the snapshots of this catalog stored in a vault.
func (a *App) Snapshots(ctx context.Context, vaultName string) ([]string, error) {
	v, err := a.openVault(ctx, vaultName)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	names, err := v.List(ctx, a.cfg.CatalogID)
	return names, a.op.Fail(err)
}

// RestoreSnapshot writes snapshot name from a vault to dest. dest must not
// exist. The passphrase is only used for encrypted snapshots.
func (a *App) RestoreSnapshot(ctx context.Context, vaultName, name, dest, passphrase string) error {
	return a.op.Fail(a.restoreSnapshot(ctx, vaultName, name, dest, passphrase))
}

func (a *App) restoreSnapshot(ctx context.Context, vaultName, name, dest, passphrase string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("restore destination already exists: %s", dest)
	}
	v, err := a.openVault(ctx, vaultName)
	if err != nil {
		return err
	}

	var dc encryption.DecryptionContext = encryption.NoneEncryptor{}
	if suffix := a.encryptor.Suffix(); suffix != "" && strings.HasSuffix(name, suffix) {
		if dc, err = a.encryptor.Unlock(passphrase); err != nil {
			return fmt.Errorf("unlocking encryption key: %w", err)
		}
	}

	tmp, err := os.CreateTemp("", "photocat-restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := v.Get(ctx, a.cfg.CatalogID, name, tmp); err != nil {
		return fmt.Errorf("fetching snapshot %s: %w", name, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(dc.Decrypt(tmp, pw))
	}()
	if err := atomic.WriteFile(dest, pr); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("restoring snapshot to %s: %w", dest, err)
	}
	a.logger.Info("snapshot restored", "vault", v.Name(), "name", name, "dest", dest)
	return nil
}
