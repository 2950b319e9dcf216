//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the rate map generation shader to SPIR-V.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	if _, err := executeCmd("glslc", withArgs("shaders/foveate.comp", "-o", "shaders/foveate.comp.spv"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the demo binary.
func (Build) Demo() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "fovea", "main.go"), withStream()); err != nil {
		return err
	}
	return nil
}
