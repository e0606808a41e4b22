package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("verdict not archived")
	ErrCorruptEntry = errors.New("corrupt verdict archive entry")
)

func errNotFound(key fmt.Stringer) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

func errCorruptEntry(key fmt.Stringer, err error) error {
	return fmt.Errorf("%w %s: %v", ErrCorruptEntry, key, err)
}
