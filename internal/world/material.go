package world

import "holdfast/internal/fixedpoint"

// Element is the closed set of material categories a tile can be made
// of. The core never extends this set at runtime.
type Element uint8

const (
	Ferrite Element = iota
	Arborite
	Zephyrite
	Lumina

	elementCount = 4
)

// String names an Element for logging; unrecognized values print as
// "ferrite" rather than panicking, matching the original's decode-or-
// default-to-Ferrite behavior on restore.
func (e Element) String() string {
	switch e {
	case Ferrite:
		return "ferrite"
	case Arborite:
		return "arborite"
	case Zephyrite:
		return "zephyrite"
	case Lumina:
		return "lumina"
	default:
		return "ferrite"
	}
}

// ElementFromByte decodes a wire byte into an Element, defaulting to
// Ferrite for any value outside the closed enumeration instead of
// failing the restore.
func ElementFromByte(b byte) Element {
	if b < elementCount {
		return Element(b)
	}
	return Ferrite
}

// profile bundles the per-material constants the Materials and Power
// phases drift toward.
type profile struct {
	thermalBias      fixedpoint.Scalar
	conductivity     fixedpoint.Scalar
	targetEfficiency fixedpoint.Scalar
	targetGeneration fixedpoint.Scalar
	targetDemand     fixedpoint.Scalar
}

var profiles = [elementCount]profile{
	Ferrite: {
		thermalBias:      fixedpoint.FromFloat32(-0.10),
		conductivity:     fixedpoint.FromFloat32(0.65),
		targetEfficiency: fixedpoint.FromFloat32(0.80),
		targetGeneration: fixedpoint.FromFloat32(12.0),
		targetDemand:     fixedpoint.FromFloat32(8.0),
	},
	Arborite: {
		thermalBias:      fixedpoint.FromFloat32(0.05),
		conductivity:     fixedpoint.FromFloat32(0.40),
		targetEfficiency: fixedpoint.FromFloat32(0.60),
		targetGeneration: fixedpoint.FromFloat32(6.0),
		targetDemand:     fixedpoint.FromFloat32(5.0),
	},
	Zephyrite: {
		thermalBias:      fixedpoint.FromFloat32(0.20),
		conductivity:     fixedpoint.FromFloat32(0.85),
		targetEfficiency: fixedpoint.FromFloat32(0.90),
		targetGeneration: fixedpoint.FromFloat32(15.0),
		targetDemand:     fixedpoint.FromFloat32(10.0),
	},
	Lumina: {
		thermalBias:      fixedpoint.FromFloat32(-0.25),
		conductivity:     fixedpoint.FromFloat32(0.95),
		targetEfficiency: fixedpoint.FromFloat32(0.95),
		targetGeneration: fixedpoint.FromFloat32(20.0),
		targetDemand:     fixedpoint.FromFloat32(14.0),
	},
}

// ThermalBias is an additive offset applied to the ambient temperature
// before the Materials phase lerps a tile toward it.
func (e Element) ThermalBias() fixedpoint.Scalar { return profiles[e%elementCount].thermalBias }

// Conductivity scales how fast a tile's temperature drifts toward its
// target each tick.
func (e Element) Conductivity() fixedpoint.Scalar { return profiles[e%elementCount].conductivity }

// PowerProfile returns the (targetEfficiency, targetGeneration,
// targetDemand) triple the Power phase drifts a node on this material
// toward.
func (e Element) PowerProfile() (efficiency, generation, demand fixedpoint.Scalar) {
	p := profiles[e%elementCount]
	return p.targetEfficiency, p.targetGeneration, p.targetDemand
}
