package policysaver

import (
	"context"
	"encoding/hex"
	"fmt"
	"maps"
	"math/rand"
	"path/filepath"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/born-ml/agents/internal/nn"
	"github.com/born-ml/agents/internal/policies"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/serialization"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// SavedPolicy is a policy reloaded from an artifact. When the artifact
// was saved with a seed, the flat action signature and the structured
// Action method each own a stream seeded by (global seed, seed): the first
// call on either reproduces the original policy called with
// policies.WithSeed of the same pair, later calls advance the stream.
//
// SavedPolicy is safe for concurrent use.
type SavedPolicy struct {
	dir        string
	manifest   Manifest
	policy     policies.Policy
	signatures map[string]*Signature

	actionStream    *seed.Stream
	signatureStream *seed.Stream
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	logger zerolog.Logger
}

// WithLoadLogger sets the logger used by Load.
func WithLoadLogger(logger zerolog.Logger) LoadOption {
	return func(c *loadConfig) {
		c.logger = logger
	}
}

// Load reads the artifact in dir and rebuilds its policy on backend.
// The weight file checksum is verified against both the file and the
// manifest.
func Load[B tensor.Backend](ctx context.Context, dir string, backend B, opts ...LoadOption) (sp *SavedPolicy, err error) {
	cfg := loadConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "policysaver.Load",
		trace.WithAttributes(attribute.String("policysaver.dir", dir)))
	defer func() {
		endSpan(span, err)
	}()

	if !tensor.ExecutingEagerly(backend) {
		return nil, ErrDeferredExecution
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("policysaver.artifact_id", manifest.ID.String()))

	policy, err := policies.Rebuild(manifest.Policy, backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPolicy, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	weightsPath := filepath.Join(dir, manifest.Variables.File)
	header, err := nn.LoadWeights(weightsPath, policy, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to load variables: %w", err)
	}
	if err := verifyChecksum(weightsPath, manifest.Variables.Checksum); err != nil {
		return nil, err
	}

	sp = &SavedPolicy{dir: dir, manifest: manifest, policy: policy}
	if err := sp.checkSpecs(); err != nil {
		return nil, err
	}
	if manifest.Seed != nil {
		pair := seed.Pair{Global: manifest.GlobalSeed, Op: *manifest.Seed}
		sp.actionStream = seed.NewStream(pair)
		sp.signatureStream = seed.NewStream(pair)
	}
	sp.buildSignatures()

	cfg.logger.Info().
		Str("artifact_id", manifest.ID.String()).
		Str("dir", dir).
		Str("policy", manifest.Policy.Kind).
		Str("producer", header.ProducerVersion).
		Msg("loaded policy")
	return sp, nil
}

// verifyChecksum compares the weight file checksum with the manifest.
func verifyChecksum(path, want string) error {
	reader, err := serialization.NewBornReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	got := reader.Checksum()
	if hex.EncodeToString(got[:]) != want {
		return fmt.Errorf("%w: manifest records %.16s, file has %x", serialization.ErrChecksumMismatch, want, got[:8])
	}
	return nil
}

// checkSpecs ensures the rebuilt policy matches the recorded specs.
func (p *SavedPolicy) checkSpecs() error {
	if !specs.EqualLists(policies.StepSpec(p.policy), p.manifest.PolicyStepSpec) {
		return fmt.Errorf("%w: rebuilt policy step spec %v, manifest has %v",
			ErrInvalidArtifact, policies.StepSpec(p.policy), p.manifest.PolicyStepSpec)
	}
	return nil
}

func (p *SavedPolicy) buildSignatures() {
	defs := p.manifest.Signatures
	action := &Signature{name: ActionSignature, def: defs[ActionSignature], call: p.callAction}
	p.signatures = map[string]*Signature{
		ActionSignature:       action,
		InitialStateSignature: {name: InitialStateSignature, def: defs[InitialStateSignature], call: p.callInitialState},
	}
	if _, ok := defs[DefaultSignature]; ok {
		p.signatures[DefaultSignature] = action
	}
}

func (p *SavedPolicy) callAction(values []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	ts, err := trajectory.FromFlat(values[:4])
	if err != nil {
		return nil, err
	}
	step, err := p.action(p.signatureStream, ts, policies.State(values[4:]))
	if err != nil {
		return nil, err
	}
	return step.Flatten(), nil
}

func (p *SavedPolicy) callInitialState(values []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	var state policies.State
	var err error
	if len(values) == 1 {
		state, err = p.GetInitialState(int(values[0].AsInt32()[0]))
	} else {
		state, err = p.GetInitialState()
	}
	return state, err
}

func (p *SavedPolicy) action(stream *seed.Stream, ts trajectory.TimeStep, state policies.State) (step policies.Step, err error) {
	if stream == nil {
		return p.policy.Action(ts, state)
	}
	stream.Use(func(rng *rand.Rand) {
		step, err = p.policy.Action(ts, state, policies.WithRand(rng))
	})
	return step, err
}

// Action runs the policy on a structured time step. Stateless policies
// accept a nil or empty state.
func (p *SavedPolicy) Action(ts trajectory.TimeStep, state policies.State) (policies.Step, error) {
	if err := p.checkBatch(ts.BatchSize()); err != nil {
		return policies.Step{}, err
	}
	return p.action(p.actionStream, ts, state)
}

// GetInitialState returns the zero state. Artifacts saved without a
// batch size need batchSize; artifacts with a fixed batch size accept
// none or the same value.
func (p *SavedPolicy) GetInitialState(batchSize ...int) (policies.State, error) {
	if len(batchSize) > 1 {
		return nil, fmt.Errorf("%s takes at most one batch size, got %d", InitialStateSignature, len(batchSize))
	}
	fixed, hasFixed := p.BatchSize()
	switch {
	case len(batchSize) == 0 && !hasFixed:
		return nil, ErrBatchSizeRequired
	case len(batchSize) == 0:
		return p.policy.InitialState(fixed)
	}
	if err := p.checkBatch(batchSize[0]); err != nil {
		return nil, err
	}
	return p.policy.InitialState(batchSize[0])
}

func (p *SavedPolicy) checkBatch(batch int) error {
	if fixed, ok := p.BatchSize(); ok && batch != fixed {
		return &specs.MismatchError{
			Field: BatchSizeInput,
			Want:  fmt.Sprintf("%d", fixed),
			Got:   fmt.Sprintf("%d", batch),
		}
	}
	return nil
}

// Signatures returns the named signatures.
func (p *SavedPolicy) Signatures() map[string]*Signature {
	return maps.Clone(p.signatures)
}

// Signature returns the named signature.
func (p *SavedPolicy) Signature(name string) (*Signature, error) {
	sig, ok := p.signatures[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSignatureNotFound, name)
	}
	return sig, nil
}

// Manifest returns the artifact manifest.
func (p *SavedPolicy) Manifest() Manifest {
	return p.manifest
}

// Policy returns the rebuilt policy.
func (p *SavedPolicy) Policy() policies.Policy {
	return p.policy
}

// GlobalSeed returns the global seed recorded at save time.
func (p *SavedPolicy) GlobalSeed() int64 {
	return p.manifest.GlobalSeed
}

// Seed returns the action seed, if the artifact was saved with one.
func (p *SavedPolicy) Seed() (int64, bool) {
	if p.manifest.Seed == nil {
		return 0, false
	}
	return *p.manifest.Seed, true
}

// BatchSize returns the fixed batch size, if any.
func (p *SavedPolicy) BatchSize() (int, bool) {
	if p.manifest.BatchSize == nil {
		return 0, false
	}
	return *p.manifest.BatchSize, true
}

// TimeStepSpec returns the policy's time step spec.
func (p *SavedPolicy) TimeStepSpec() trajectory.Spec {
	return p.policy.TimeStepSpec()
}

// ActionSpec returns the policy's action spec.
func (p *SavedPolicy) ActionSpec() specs.TensorSpec {
	return p.policy.ActionSpec()
}

// StateSpec returns the policy's state spec.
func (p *SavedPolicy) StateSpec() []specs.TensorSpec {
	return p.policy.StateSpec()
}
