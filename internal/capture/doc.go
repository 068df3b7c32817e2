// Package capture reads user-selected files into build.FileRecord values.
//
// The main slot accepts a single Python source; the additional slot accepts
// sources, compiled extensions, shared libraries, data files and images.
// Files are read concurrently but merged in the order they were given, and a
// file that cannot be read is reported instead of aborting the batch.
package capture
