// Package build contains the core domain types of the executable builder.
//
// FileRecord is a captured file, BuildConfig is the flat record of packaging
// options edited through the form, and Session groups both for one user.
// Session mutations are pure reducers returning a new value, which keeps the
// transports free of ad-hoc state handling and makes every change testable.
package build
