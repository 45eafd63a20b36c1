// Package types defines the core types shared across mycelium: the manifest
// document and its item configs, component types, the merged-config result,
// and the interfaces (FS, ToolAdapter) that decouple the engine from the
// operating system and from per-tool integrations.
package types
