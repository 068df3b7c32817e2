// Command exe-builder-server serves the exe-builder form and render API.
package main

import "github.com/oshokin/exe-builder/cmd/exe-builder-server/cmd"

func main() {
	cmd.Execute()
}
