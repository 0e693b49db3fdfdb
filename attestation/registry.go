package attestation

import (
	"context"
	"fmt"
	"time"
)

// RegistryReader answers the two read-only on-chain questions the trust flow
// depends on. The chain connection itself lives with the caller; this
// package only consumes the answers.
type RegistryReader interface {
	// ImageRegistered reports whether the measured image digest is in the
	// on-chain registry.
	ImageRegistered(ctx context.Context, digest string) (bool, error)

	// RegistrationWindow returns how long a registration stays valid.
	RegistrationWindow(ctx context.Context) (time.Duration, error)
}

// CheckRegistration validates a token and confirms its measured image is
// registered. Unlike Verify, registry lookups can fail transiently, so this
// returns an error for I/O faults and a rejected Result only for trust
// failures.
func (v *Validator) CheckRegistration(ctx context.Context, reg RegistryReader, raw string) (Result, error) {
	res := v.Verify(raw)
	if !res.Verified {
		return res, nil
	}

	ok, err := reg.ImageRegistered(ctx, res.ImageDigest)
	if err != nil {
		return Result{}, fmt.Errorf("registry lookup: %w", err)
	}
	if !ok {
		return rejected("image digest %s is not registered", res.ImageDigest), nil
	}
	return res, nil
}
