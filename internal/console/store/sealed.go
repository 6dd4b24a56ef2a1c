package store

import (
	"context"

	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

// Sealer encrypts individual values. *cryptox.Sealer satisfies it.
type Sealer interface {
	SealString(value string) (string, error)
	OpenString(value string) (string, error)
}

type sealedKV struct {
	KV
	sealer Sealer
}

// Sealed wraps kv so every value is encrypted at rest. A stored value that
// fails to open reads as ErrNotFound.
func Sealed(kv KV, sealer Sealer) KV {
	return &sealedKV{KV: kv, sealer: sealer}
}

func (s *sealedKV) Get(ctx context.Context, key string) (string, error) {
	v, err := s.KV.Get(ctx, key)
	if err != nil {
		return "", err
	}

	plain, err := s.sealer.OpenString(v)
	if err != nil {
		slogx.FromContext(ctx).Warn("sealed store: value failed to open", "key", key, "err", err)
		return "", ErrNotFound
	}
	return plain, nil
}

func (s *sealedKV) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.SealString(value)
	if err != nil {
		return err
	}
	return s.KV.Set(ctx, key, sealed)
}
