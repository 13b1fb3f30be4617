package policysaver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/agents/internal/policies"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// Artifact layout.
const (
	ManifestFile  = "saved_policy.json"
	VariablesFile = "variables.born"

	// FormatVersion is the manifest version written by Save.
	FormatVersion = 1
)

// Signature names.
const (
	ActionSignature       = "action"
	InitialStateSignature = "get_initial_state"

	// DefaultSignature is served by the action function.
	DefaultSignature = "serving_default"

	// BatchSizeInput is the get_initial_state input when no batch size is fixed.
	BatchSizeInput = "batch_size"
)

// Manifest is the JSON document stored in ManifestFile.
type Manifest struct {
	ID            uuid.UUID `json:"id" yaml:"id"`
	FormatVersion int       `json:"format_version" yaml:"format_version"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`

	Policy          policies.Descriptor `json:"policy" yaml:"policy"`
	TimeStepSpec    trajectory.Spec     `json:"time_step_spec" yaml:"time_step_spec"`
	ActionSpec      specs.TensorSpec    `json:"action_spec" yaml:"action_spec"`
	PolicyStateSpec []specs.TensorSpec  `json:"policy_state_spec" yaml:"policy_state_spec"`
	PolicyStepSpec  []specs.TensorSpec  `json:"policy_step_spec" yaml:"policy_step_spec"`

	Signatures map[string]SignatureDef `json:"signatures" yaml:"signatures"`

	GlobalSeed int64  `json:"global_seed" yaml:"global_seed"`
	Seed       *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	BatchSize  *int   `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`

	Variables Variables `json:"variables" yaml:"variables"`
}

// SignatureDef lists the flat inputs and outputs of a signature.
type SignatureDef struct {
	Inputs  []specs.TensorSpec `json:"inputs" yaml:"inputs"`
	Outputs []specs.TensorSpec `json:"outputs" yaml:"outputs"`
}

// Variables describes the weight file.
type Variables struct {
	File          string `json:"file" yaml:"file"`
	Checksum      string `json:"sha256" yaml:"sha256"`
	NumTensors    int    `json:"num_tensors" yaml:"num_tensors"`
	NumParameters int    `json:"num_parameters" yaml:"num_parameters"`
}

// signatureDefs derives the signatures of a policy. batchSize 0 leaves
// the batch dimension unknown.
func signatureDefs(p policies.Policy, batchSize int) map[string]SignatureDef {
	outer := specs.UnknownDim
	if batchSize > 0 {
		outer = batchSize
	}

	inputs := specs.Flatten(p.TimeStepSpec().Flatten(), p.StateSpec())
	action := SignatureDef{
		Inputs:  specs.Unbounded(specs.WithOuterDims(inputs, outer)),
		Outputs: specs.Unbounded(specs.WithOuterDims(policies.StepSpec(p), outer)),
	}

	initial := SignatureDef{
		Inputs:  []specs.TensorSpec{},
		Outputs: specs.Unbounded(specs.WithOuterDims(p.StateSpec(), outer)),
	}
	if batchSize == 0 {
		initial.Inputs = []specs.TensorSpec{specs.New(BatchSizeInput, tensor.Int32, nil)}
	}

	return map[string]SignatureDef{
		ActionSignature:       action,
		DefaultSignature:      action,
		InitialStateSignature: initial,
	}
}

func writeManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ManifestFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, ManifestFile))
}

// ReadManifest reads and validates the manifest of the artifact in dir.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if m.FormatVersion != FormatVersion {
		return Manifest{}, fmt.Errorf("%w: format version %d, want %d", ErrInvalidArtifact, m.FormatVersion, FormatVersion)
	}
	if m.Variables.File == "" || filepath.Base(m.Variables.File) != m.Variables.File {
		return Manifest{}, fmt.Errorf("%w: bad variables file %q", ErrInvalidArtifact, m.Variables.File)
	}
	for _, name := range []string{ActionSignature, InitialStateSignature} {
		if _, ok := m.Signatures[name]; !ok {
			return Manifest{}, fmt.Errorf("%w: missing %q signature", ErrInvalidArtifact, name)
		}
	}
	return m, nil
}
