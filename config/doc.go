// Package config reads YAML network descriptions and builds solvers from them.
//
// A file holds up to three independent sections:
//
//	gathering:  wells on flowlines into one manifold (gathering.NetworkSolver)
//	looped:     sources, sinks and junctions joined by pipes (hardycross.LoopedNetwork)
//	pipeflow:   feeds, manifolds and connecting pipelines (network.PipeFlowNetwork)
//
// Parse rejects unknown keys. Quantities that carry a unit are written as
// {value: 50, unit: bara}; bare numbers use the unit named in the key.
//
// Errors:
//
//	ErrEmpty   - no section present.
//	ErrInvalid - a section fails validation; the message names the field.
package config
