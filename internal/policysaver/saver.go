// Package policysaver writes policies to self-contained directory
// artifacts and loads them back as SavedPolicy values exposing the
// "action" and "get_initial_state" signatures.
package policysaver

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/born-ml/agents/internal/nn"
	"github.com/born-ml/agents/internal/policies"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/serialization"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
)

const tracerName = "github.com/born-ml/agents/policysaver"

// Saver writes a policy artifact.
type Saver struct {
	policy     policies.Policy
	batchSize  int
	seed       *int64
	globalSeed int64
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	manifestWriter func(dir string, m Manifest) error
}

// Option configures a Saver.
type Option func(*Saver)

// WithBatchSize fixes the batch dimension of every signature.
// get_initial_state then takes no input.
func WithBatchSize(n int) Option {
	return func(s *Saver) {
		s.batchSize = n
	}
}

// WithSeed seeds the artifact's action entry points with (global, op).
func WithSeed(op int64) Option {
	return func(s *Saver) {
		s.seed = &op
	}
}

// WithGlobalSeed overrides seed.DefaultGlobal.
func WithGlobalSeed(global int64) Option {
	return func(s *Saver) {
		s.globalSeed = global
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Saver) {
		s.logger = logger
	}
}

// New creates a Saver for policy.
func New(policy policies.Policy, opts ...Option) (*Saver, error) {
	if policy == nil {
		return nil, errors.New("policy saver: nil policy")
	}
	s := &Saver{
		policy:     policy,
		globalSeed: seed.DefaultGlobal,
		logger:     zerolog.Nop(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,

		manifestWriter: writeManifest,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.batchSize < 0 {
		return nil, fmt.Errorf("policy saver: batch size must be positive, got %d", s.batchSize)
	}
	return s, nil
}

// Signatures returns the signature definitions Save will record.
func (s *Saver) Signatures() map[string]SignatureDef {
	return signatureDefs(s.policy, s.batchSize)
}

// Save writes the artifact to dir, creating it when missing. dir must be
// empty if it exists.
func (s *Saver) Save(ctx context.Context, dir string) (err error) {
	ctx, span := s.tracer.Start(ctx, "policysaver.Save", trace.WithAttributes(
		attribute.String("policysaver.dir", dir),
		attribute.String("policysaver.policy", s.policy.Descriptor().Kind),
		attribute.Int("policysaver.batch_size", s.batchSize),
	))
	defer func() {
		endSpan(span, err)
	}()

	if !tensor.ExecutingEagerly(s.policy.Backend()) {
		return ErrDeferredExecution
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareDir(dir); err != nil {
		return err
	}

	id := uuid.New()
	desc := s.policy.Descriptor()
	weightsPath := filepath.Join(dir, VariablesFile)
	defer func() {
		// A failed save leaves dir empty so it can be retried.
		if err != nil {
			os.Remove(weightsPath)
		}
	}()
	header := serialization.Header{
		ModelType: desc.Kind,
		Metadata:  map[string]string{"artifact_id": id.String()},
	}
	if err := nn.SaveWeights(weightsPath, s.policy, header); err != nil {
		return fmt.Errorf("failed to save variables: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	variables, err := describeVariables(weightsPath)
	if err != nil {
		return err
	}

	manifest := Manifest{
		ID:              id,
		FormatVersion:   FormatVersion,
		CreatedAt:       s.now().UTC(),
		Policy:          desc,
		TimeStepSpec:    s.policy.TimeStepSpec(),
		ActionSpec:      s.policy.ActionSpec(),
		PolicyStateSpec: s.policy.StateSpec(),
		PolicyStepSpec:  policies.StepSpec(s.policy),
		Signatures:      s.Signatures(),
		GlobalSeed:      s.globalSeed,
		Seed:            s.seed,
		Variables:       variables,
	}
	if manifest.PolicyStateSpec == nil {
		manifest.PolicyStateSpec = []specs.TensorSpec{}
	}
	if s.batchSize > 0 {
		manifest.BatchSize = &s.batchSize
	}

	if err := s.manifestWriter(dir, manifest); err != nil {
		return err
	}

	span.SetAttributes(attribute.String("policysaver.artifact_id", id.String()))
	s.logger.Info().
		Str("artifact_id", id.String()).
		Str("dir", dir).
		Str("policy", desc.Kind).
		Int("num_parameters", variables.NumParameters).
		Msg("saved policy")
	return nil
}

// prepareDir creates dir or checks that it is empty.
func prepareDir(dir string) error {
	f, err := os.Open(dir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("failed to open artifact directory: %w", err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("%w: %s", ErrArtifactExists, dir)
		}
		return fmt.Errorf("failed to read artifact directory: %w", err)
	}
	return nil
}

// describeVariables reads back the written weight file for the manifest.
func describeVariables(path string) (Variables, error) {
	reader, err := serialization.NewBornReader(path)
	if err != nil {
		return Variables{}, fmt.Errorf("failed to verify variables: %w", err)
	}
	defer reader.Close()

	checksum := reader.Checksum()
	v := Variables{
		File:       filepath.Base(path),
		Checksum:   hex.EncodeToString(checksum[:]),
		NumTensors: len(reader.TensorNames()),
	}
	for _, name := range reader.TensorNames() {
		meta, err := reader.TensorInfo(name)
		if err != nil {
			return Variables{}, err
		}
		v.NumParameters += tensor.Shape(meta.Shape).NumElements()
	}
	return v, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
