/*
Copyright © 2026 prehisle
*/
package main

import (
	"github.com/prehisle/ndr/cmd"

	// Import extensions - each registers itself via init()
	_ "github.com/prehisle/ndr/extension/all"
)

func main() {
	cmd.Execute()
}
