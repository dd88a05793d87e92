// Command tzcore is a thin CLI over the tzcore facade: inspecting
// TZif files, diffing them, and exercising the lookup engine and the
// process-wide cache end to end. None of this is part of the core
// contract (spec.md §1 scopes CLI wrappers out); it exists the way
// go-tz-tz ships tzinfo/tzinspect/tzdiff alongside its library code.
package main

import "github.com/gozoneinfo/tzcore/cmd/tzcore/cmd"

func main() {
	cmd.Execute()
}
