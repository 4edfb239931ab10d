// Package fsx provides the file relocation helpers shared by the local
// stores. Moves must survive staging and durable directories living on
// different mounts, which plain os.Rename does not.
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// Move renames src to dst, falling back to copy-and-delete when the two
// paths are on different filesystems.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}

	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

// CopyFile copies src to dst, replacing dst if it exists. The copy goes
// through a temporary file so a failed copy never leaves a partial dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from our own stores
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close() //nolint:errcheck

	tmp := dst + ".partial"
	out, err := os.Create(tmp) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()    //nolint:errcheck,gosec
		os.Remove(tmp) //nolint:errcheck,gosec
		return fmt.Errorf("copy %s to %s: %w", src, tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck,gosec
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	return os.Rename(tmp, dst)
}
