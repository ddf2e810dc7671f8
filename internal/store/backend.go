package store

import (
	"github.com/pkg/errors"
)

// Backend kinds accepted by OpenBackend.
const (
	KindFile   = "file"
	KindMemory = "memory"
	KindLocal  = "local"
)

// OpenBackend builds the backend named by kind. The returned close function
// is never nil.
func OpenBackend(kind, dataFile, localDB string) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case KindFile, "":
		return NewFileBackend(dataFile), noop, nil
	case KindMemory:
		return NewMemoryBackend(), noop, nil
	case KindLocal:
		lb, err := OpenLocalBackend(localDB)
		if err != nil {
			return nil, noop, err
		}
		return lb, lb.Close, nil
	}
	return nil, noop, errors.Errorf("unknown storage backend %q", kind)
}
