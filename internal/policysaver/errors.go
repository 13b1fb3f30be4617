package policysaver

import (
	"errors"

	"github.com/born-ml/agents/internal/specs"
)

var (
	// ErrDeferredExecution is returned when the policy backend builds
	// deferred graphs instead of executing eagerly. Saving and loading
	// need concrete values.
	ErrDeferredExecution = errors.New("policy saver requires eager execution")

	// ErrSignatureNotFound is returned by SavedPolicy.Signature for an
	// unknown name.
	ErrSignatureNotFound = errors.New("signature not found")

	// ErrSpecMismatch is wrapped by errors for inputs or outputs that
	// disagree with a signature. It is the same value as specs.ErrMismatch.
	ErrSpecMismatch = specs.ErrMismatch

	// ErrBatchSizeRequired is returned by get_initial_state when the
	// artifact has no fixed batch size and none was given.
	ErrBatchSizeRequired = errors.New("batch size required")

	// ErrUnsupportedPolicy is returned when a policy cannot be rebuilt
	// from its descriptor.
	ErrUnsupportedPolicy = errors.New("unsupported policy")

	// ErrArtifactExists is returned by Save when the target directory is
	// not empty.
	ErrArtifactExists = errors.New("artifact directory is not empty")

	// ErrInvalidArtifact is returned by Load for a malformed manifest.
	ErrInvalidArtifact = errors.New("invalid artifact")
)
