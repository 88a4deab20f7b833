package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/zeebo/blake3"
)

// ErrVerifyMismatch reports that a verified copy did not reproduce the source.
var ErrVerifyMismatch = errors.New("copy verification failed")

// CopyFile streams src to dst, preserving the permission bits of src. dst must
// not exist; an existing file is never overwritten.
func CopyFile(src, dst string) error {
	_, err := copyFile(src, dst, false)
	return err
}

// CopyFileVerified streams src to dst and checks size and BLAKE3 digest of
// both sides. dst is removed on mismatch. The digest is returned so callers
// can record it.
func CopyFileVerified(src, dst string) ([]byte, error) {
	return copyFile(src, dst, true)
}

func copyFile(src, dst string, verify bool) ([]byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := blake3.New()
	dstHasher := blake3.New()
	var reader io.Reader = in
	var writer io.Writer = out
	if verify {
		reader = io.TeeReader(in, srcHasher)
		writer = io.MultiWriter(out, dstHasher)
	}

	written, err := io.Copy(writer, reader)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return nil, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	if !verify {
		return nil, nil
	}

	if written != info.Size() {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("%w: source %d bytes, copied %d bytes", ErrVerifyMismatch, info.Size(), written)
	}
	srcSum := srcHasher.Sum(nil)
	if !bytes.Equal(srcSum, dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("%w: digest differs", ErrVerifyMismatch)
	}
	return srcSum, nil
}

// MoveFile renames src to dst. When the two paths live on different
// filesystems the move is emulated with a copy followed by removal of src;
// with verify set the copy is checked before src is removed. The returned
// bool reports whether the fallback was used.
func MoveFile(src, dst string, verify bool) (bool, error) {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return false, nil
	}
	if !IsCrossDevice(renameErr) {
		return false, renameErr
	}
	if _, err := copyFile(src, dst, verify); err != nil {
		return true, fmt.Errorf("cross-device copy: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return true, fmt.Errorf("remove source after copy: %w", err)
	}
	return true, nil
}

// IsCrossDevice reports whether err is a rename failure caused by src and dst
// being on different filesystems.
func IsCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}

// Digest returns the BLAKE3 digest of the file at path.
func Digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}
