// Package filesystem provides the production implementation of types.FS.
package filesystem
