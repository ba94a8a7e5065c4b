package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"syscall"
)

func IsDir(path string) bool {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return true
	}

	return false
}

func IsFile(path string) bool {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return true
	}

	return false
}

// moveFile never overwrites: an existing destination is a hard failure so
// a bad plan cannot silently destroy data.
func moveFile(source, destination string) error {
	_, err := os.Stat(destination)

	if err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, destination)
	}

	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	err = os.MkdirAll(filepath.Dir(destination), 0700)

	if err != nil {
		return err
	}

	err = os.Rename(source, destination)

	if err == nil {
		return nil
	}

	// Rename cannot cross filesystems
	var linkErr *os.LinkError

	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		return copyAndRemove(source, destination)
	}

	return err
}

func copyAndRemove(source, destination string) error {
	sourceFile, err := os.Open(path.Clean(source))

	if err != nil {
		return err
	}

	defer sourceFile.Close()

	destinationFile, err := os.OpenFile(path.Clean(destination), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)

	if err != nil {
		return err
	}

	_, err = io.Copy(destinationFile, sourceFile)

	if err != nil {
		destinationFile.Close()
		return err
	}

	err = destinationFile.Close()

	if err != nil {
		return err
	}

	return os.Remove(source)
}
