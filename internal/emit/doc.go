// Package emit persists the bundle a user downloads: the main file, the
// additional files, setup.py and build.bat.
//
// An Emitter writes one named file. EmitAll drives the whole sequence and
// refuses to start without a main file. Emit returning is the completion
// signal, so no delay is needed between files; WithSpacing exists for
// emitters whose host drops triggers fired back to back.
package emit
