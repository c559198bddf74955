package importer

import (
	"fmt"

	"github.com/guanlun/psan1-rendering-engine/types"
)

// Material indices of the default material set.
const (
	woodMaterial = iota
	checkerboardMaterial
	clothMaterial
)

const (
	pinRadius = 0.44

	// 12 inch spacing between pins that are 4.75 inches wide.
	pinDistance = pinRadius * 12 / (4.75 / 2)
	pinUnitX    = pinDistance * 1.73205 / 2
	pinUnitZ    = pinDistance / 2

	// 15 inch tall pins.
	pinHalfHeight = pinRadius * 15 / 4.75
	pinMass       = 1.5

	ballRadius = 1.0
	ballMass   = 7.0
)

// The base of the pin rack.
var pinBasePosition = types.Vec3{10, 0, 0}

// Get the pin rack offsets relative to the head pin.
func PinRack() []types.Vec3 {
	return []types.Vec3{
		{0, 0, 0},
		{pinUnitX, 0, pinUnitZ},
		{pinUnitX, 0, -pinUnitZ},
		{2 * pinUnitX, 0, 2 * pinUnitZ},
		{2 * pinUnitX, 0, 0},
		{2 * pinUnitX, 0, -2 * pinUnitZ},
		{3 * pinUnitX, 0, -3 * pinUnitZ},
		{3 * pinUnitX, 0, -1 * pinUnitZ},
		{3 * pinUnitX, 0, 1 * pinUnitZ},
		{3 * pinUnitX, 0, 3 * pinUnitZ},
	}
}

// Generate the demo scene: a wooden lane, a rack of ten pins, a ball dropped
// onto the rack and a ceiling light.
func BowlingScene() *Manifest {
	m := &Manifest{
		Objects: []ObjectSpec{
			{
				Name:        "lane",
				Shape:       "box",
				Material:    woodMaterial,
				HalfExtents: &types.Vec3{30, 0.5, 10},
				Position:    types.Vec3{5, -0.5, 0},
				Physics:     &PhysicsSpec{Mass: 0, Friction: 0.8, Restitution: 0.1},
			},
		},
	}

	for index, offset := range PinRack() {
		pos := pinBasePosition.Add(offset)
		pos[1] = pinHalfHeight
		m.Objects = append(m.Objects, ObjectSpec{
			Name:        pinName(index),
			Shape:       "box",
			Material:    checkerboardMaterial,
			HalfExtents: &types.Vec3{pinRadius, pinHalfHeight, pinRadius},
			Position:    pos,
			Physics:     &PhysicsSpec{Mass: pinMass, Friction: 0.5, Restitution: 0.3},
		})
	}

	m.Objects = append(m.Objects,
		ObjectSpec{
			Name:     "ball",
			Shape:    "sphere",
			Material: clothMaterial,
			Radius:   ballRadius,
			Position: types.Vec3{pinBasePosition[0] + pinUnitX, 8, 0},
			Physics:  &PhysicsSpec{Mass: ballMass, Friction: 0.3, Restitution: 0.2},
		},
		ObjectSpec{
			Name:        "ceiling_light",
			Shape:       "box",
			Material:    woodMaterial,
			HalfExtents: &types.Vec3{4, 0.05, 4},
			Position:    types.Vec3{12, 14, 0},
			Emissive:    true,
			Radiance:    &types.Vec3{1, 1, 1},
		},
	)

	return m
}

func pinName(index int) string {
	return fmt.Sprintf("pin_%d", index)
}
