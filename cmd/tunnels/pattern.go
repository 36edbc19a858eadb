package main

import (
	"fmt"
	"math"
	"time"

	"github.com/tunnelz/tunnels/internal/snapshot"
)

// Test pattern geometry in normalised screen units.
const (
	patternRadius   = 0.8
	patternWeight   = 0.05
	patternSpinRate = math.Pi / 2 // radians per second

	// stressArcs is the arc count per layer in the stress pattern.
	stressArcs = 64
	stressRows = 4
)

// pattern generates one frame for a given elapsed show time.
type pattern func(elapsed time.Duration) snapshot.Layers

var patterns = map[string]pattern{
	"rotation": rotationPattern,
	"stress":   stressPattern,
}

func lookupPattern(name string) (pattern, error) {
	p, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q (want rotation or stress)", name)
	}
	return p, nil
}

// rotationPattern is a single quarter arc spinning about the centre.
func rotationPattern(elapsed time.Duration) snapshot.Layers {
	return snapshot.Layers{{
		{
			Level: 255, Thickness: patternWeight,
			Hue: math.Pi, Sat: 255, Val: 255,
			RadX: patternRadius, RadY: patternRadius,
			Start: 0, Stop: math.Pi / 2,
			RotAngle: math.Mod(elapsed.Seconds()*patternSpinRate, snapshot.FullTurn),
		},
	}}
}

// stressPattern fills several layers with concentric rings of short arcs,
// counter-rotating by layer.
func stressPattern(elapsed time.Duration) snapshot.Layers {
	layers := make(snapshot.Layers, stressRows)
	for row := range layers {
		dir := 1.0
		if row%2 == 1 {
			dir = -1
		}
		radius := patternRadius * float64(row+1) / stressRows
		rot := math.Mod(dir*elapsed.Seconds()*patternSpinRate, snapshot.FullTurn)

		layer := make(snapshot.Layer, stressArcs)
		for i := range layer {
			seg := snapshot.FullTurn / stressArcs
			layer[i] = snapshot.ArcSegment{
				Level: 255, Thickness: patternWeight / 2,
				Hue: float64(i) * seg, Sat: 255, Val: 255,
				RadX: radius, RadY: radius,
				Start: float64(i) * seg, Stop: float64(i)*seg + seg/2,
				RotAngle: rot,
			}
		}
		layers[row] = layer
	}
	return layers
}
