//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Cooks every script and material under assets/ into build/assets.
func (Build) Scripts() error {
	if _, err := executeCmd("go", withArgs("run", "./cmd/ccmdc", "-v", "-o", "build/assets", "assets"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the engine testbed and the ccmdc cooker into build/.
func (Build) Binaries() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "build/anima", "."), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "build/ccmdc", "./cmd/ccmdc"), withStream()); err != nil {
		return err
	}
	return nil
}
