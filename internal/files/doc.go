// Package files resolves command line inputs into the table files they
// name: plain paths, glob patterns and directories.
package files
