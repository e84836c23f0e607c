package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	SealKeySize = 32
	nonceSize   = 24
)

// Sealer encrypts token secrets at rest with NaCl secretbox.
type Sealer struct {
	key [SealKeySize]byte
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != SealKeySize {
		return nil, errors.Errorf("seal key must be %d bytes, got %d", SealKeySize, len(key))
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// Seal returns base64(nonce || box).
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.Wrap(err, "Seal nonce")
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Wrap(err, "Open decode")
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", errors.New("Open: sealed value too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errors.New("Open: authentication failed")
	}
	return string(plain), nil
}

var _ AccessTokenRepo = (*SealedRepo)(nil)

// SealedRepo seals TokenSecret before it reaches the wrapped repo and opens it
// on the way out.
type SealedRepo struct {
	repo   AccessTokenRepo
	sealer *Sealer
}

func NewSealedRepo(repo AccessTokenRepo, sealer *Sealer) *SealedRepo {
	return &SealedRepo{repo: repo, sealer: sealer}
}

func (r *SealedRepo) Upsert(ctx context.Context, at *AccessToken) error {
	sealed, err := r.sealer.Seal(at.TokenSecret.Value())
	if err != nil {
		return errors.Wrap(err, "SealedRepo.Upsert")
	}
	cp := *at
	cp.TokenSecret = NewRedacted(sealed)
	return r.repo.Upsert(ctx, &cp)
}

func (r *SealedRepo) GetByUserID(ctx context.Context, userID string) (*AccessToken, error) {
	at, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	plain, err := r.sealer.Open(at.TokenSecret.Value())
	if err != nil {
		return nil, errors.Wrapf(err, "SealedRepo.GetByUserID %s", userID)
	}
	at.TokenSecret = NewRedacted(plain)
	return at, nil
}
