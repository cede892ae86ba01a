package blockfile

import (
	"github.com/hashicorp/hcl/v2"
)

// fileSchema is the top level of a block file: exactly one root block.
type fileSchema struct {
	Blocks []*blockSchema `hcl:"block,block"`
}

// blockSchema mirrors block.Spec. Attributes whose shape varies (a number or
// a list) are kept as expressions and converted through cty.
type blockSchema struct {
	Name string `hcl:"name,label"`

	Size   hcl.Expression `hcl:"size,optional"`
	Points hcl.Expression `hcl:"points,optional"`

	Surface      *string  `hcl:"surface,optional"`
	Zone         *string  `hcl:"zone,optional"`
	MeshSize     *float64 `hcl:"mesh_size,optional"`
	BooleanLevel *int     `hcl:"boolean_level,optional"`

	Register           *bool `hcl:"register,optional"`
	RegisterChildren   *bool `hcl:"register_children,optional"`
	Unregister         *bool `hcl:"unregister,optional"`
	UnregisterChildren *bool `hcl:"unregister_children,optional"`

	Transforms []*transformSchema `hcl:"transform,block"`
	Placement  []*transformSchema `hcl:"placement,block"`
	Curves     []*curveSchema     `hcl:"curve,block"`
	Structure  *structureSchema   `hcl:"structure,block"`
	Quadrate   *quadrateSchema    `hcl:"quadrate,block"`
	Children   []*blockSchema     `hcl:"block,block"`
}

// transformSchema covers every transform type; the label selects which
// attributes apply.
type transformSchema struct {
	Type string `hcl:"type,label"`

	Delta  []float64      `hcl:"delta,optional"`
	Axis   []float64      `hcl:"axis,optional"`
	Origin []float64      `hcl:"origin,optional"`
	Angle  *float64       `hcl:"angle,optional"`
	Factor hcl.Expression `hcl:"factor,optional"`
	Matrix []float64      `hcl:"matrix,optional"`
}

// curveSchema overrides one of the twelve block edges, addressed by index.
type curveSchema struct {
	Index   string      `hcl:"index,label"`
	Kind    string      `hcl:"kind"`
	Via     [][]float64 `hcl:"via,optional"`
	Normal  []float64   `hcl:"normal,optional"`
	Degree  *int        `hcl:"degree,optional"`
	Weights []float64   `hcl:"weights,optional"`
}

type structureSchema struct {
	Nodes       hcl.Expression `hcl:"nodes,optional"`
	Progression hcl.Expression `hcl:"progression,optional"`
	Type        *string        `hcl:"type,optional"`
	Arrangement *string        `hcl:"arrangement,optional"`
	Volume      *bool          `hcl:"volume,optional"`
}

type quadrateSchema struct {
	Angle *float64 `hcl:"angle,optional"`
}
