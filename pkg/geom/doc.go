// Package geom defines the plain geometric records shared by the registry,
// the block assembler and the kernel backends: points, curves, curve loops,
// surfaces, surface loops and volumes, plus the error taxonomy used across
// the module.
package geom
