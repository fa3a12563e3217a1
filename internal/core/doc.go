// Package core orchestrates requirement normalization runs.
//
// This package is the heart of the normalizer. It is independent of file
// formats, output targets and the CLI, and can be driven by any [Source]
// of rows.
//
// # Run
//
// [Service.Run] visits the configured inputs strictly in order:
//
//  1. Resolve the input's doc_type (or alias) through the schema registry
//  2. Read the rows from the [Source]
//  3. Validate that every required column is present ([ValidateColumns])
//  4. Normalize with the family's normalizer kind
//  5. Append the records to the unified table
//
// A failure at any step skips that input only. Once every input has been
// visited, trace tokens are reconciled against the run-wide alias map, so a
// parent listed in a later document still resolves.
//
// # Error Handling
//
// Errors are mapped to coded user messages with [MapError]:
//
//   - SCH001-SCH003: Schema errors (unknown doc type, missing columns, bad definitions)
//   - SRC001-SRC003: Source errors (not found, unsupported, unreadable)
//   - ID001-ID002: Identifier warnings
//   - TRC001: Dangling trace references
//   - EXP001: Export failures
package core
