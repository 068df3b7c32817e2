// Command exe-builder writes a cx_Freeze setup.py and build.bat bundle for a Python program.
package main

import "github.com/oshokin/exe-builder/cmd/exe-builder/cmd"

func main() {
	cmd.Execute()
}
