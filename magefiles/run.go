//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Cooks the scripts and runs the testbed with engine.toml.
func (Run) Engine() error {
	mg.Deps(Build.Scripts)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "engine.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
