// Package render turns a build configuration into the cx_Freeze setup.py
// script and returns the fixed build.bat companion.
//
// Rendering is a pure function of its inputs. Every value interpolated into
// the script passes through PythonString, so user input can never break out
// of a string literal.
package render
