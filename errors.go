package aaclust

import (
	"errors"
	"fmt"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/config"
	"github.com/hupe1980/aaclust/signature"
)

var (
	// ErrNothingToAssign is returned when clustering has neither existing
	// clusters nor permission to create any.
	ErrNothingToAssign = errors.New("nothing to assign: no existing clusters and no clusters requested")

	// ErrNoPrototypes is returned when encoding without a codebook.
	ErrNoPrototypes = errors.New("no prototypes")
)

// ErrConfig indicates an invalid setting detected before any work starts.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrConfig struct {
	Field  string
	Reason string
	cause  error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ErrConfig) Unwrap() error { return e.cause }

// ErrOverwrite indicates an output path that names one of the inputs.
type ErrOverwrite struct {
	Path string
}

func (e *ErrOverwrite) Error() string {
	return fmt.Sprintf("output %s would overwrite an input", e.Path)
}

// CheckOutputs returns *ErrOverwrite if any output equals any input.
// Empty paths are ignored.
func CheckOutputs(inputs, outputs []string) error {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in != "" {
			seen[in] = struct{}{}
		}
	}
	for _, out := range outputs {
		if out == "" {
			continue
		}
		if _, ok := seen[out]; ok {
			return &ErrOverwrite{Path: out}
		}
	}
	return nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, cluster.ErrNothingToAssign) {
		return fmt.Errorf("%w: %w", ErrNothingToAssign, err)
	}
	if errors.Is(err, signature.ErrNoPrototypes) {
		return fmt.Errorf("%w: %w", ErrNoPrototypes, err)
	}
	if errors.Is(err, signature.ErrPrototypeLength) || errors.Is(err, cluster.ErrPrototypeLength) {
		return &ErrConfig{Field: "cluster.k", Reason: "prototype length differs from k", cause: err}
	}
	if errors.Is(err, cluster.ErrInvalidThreshold) {
		return &ErrConfig{Field: "cluster.threshold", Reason: "must not be negative", cause: err}
	}
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return &ErrConfig{Field: ve.Field, Reason: ve.Reason, cause: err}
	}
	return err
}
