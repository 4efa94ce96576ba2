package network

import (
	"errors"
	"log/slog"
)

var (
	// ErrDuplicateManifold indicates a manifold name is already taken.
	ErrDuplicateManifold = errors.New("network: duplicate manifold")

	// ErrManifoldNotFound indicates a reference to an unknown manifold.
	ErrManifoldNotFound = errors.New("network: manifold not found")

	// ErrOutboundExists indicates the upstream manifold already has an outbound pipeline.
	ErrOutboundExists = errors.New("network: manifold already has an outbound pipeline")

	// ErrDuplicatePipeline indicates a pipeline name is already taken.
	ErrDuplicatePipeline = errors.New("network: duplicate pipeline")

	// ErrPipelineNotFound indicates a profile query for an unknown pipeline.
	ErrPipelineNotFound = errors.New("network: pipeline not found")

	// ErrNilElement indicates a required element reference is nil.
	ErrNilElement = errors.New("network: nil element")
)

// Option configures an executor.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

func defaultSettings() settings {
	return settings{logger: slog.Default()}
}

// WithLogger routes run diagnostics to l. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
