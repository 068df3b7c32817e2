// Package generator implements the exe-builder CLI workflows: collecting
// files from disk, applying the build settings, and writing the bundle
// into an output folder.
//
// Rendering runs in-process by default, or on an exe-builder-server when a
// server address is given.
package generator
