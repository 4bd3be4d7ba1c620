// Package docio reads and writes slide geometry documents.
//
// Responsibilities: decoding the JSON document format into layout objects,
// recording committed positions, and writing updated documents back.
// Key types: Document, Reader, Writer.
//
// Dependency rule: docio may depend on layout and snapping (for the commit
// sink contract). All file access goes through fsutil.FileSystem.
package docio
