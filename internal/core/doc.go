// Package core provides the review ingestion and sentiment pipeline.
//
// This package contains all domain logic independent of any transport. It
// can be driven by web handlers, CLI tools, or tests without modification.
//
// # Pipeline
//
// A document moves through a fixed sequence of steps:
//
//  1. [DetectFormat] maps the filename extension to csv, json or txt
//  2. [CheckSize] rejects documents over the byte cap
//  3. An [Extractor] turns bytes into ordered [ReviewText] values
//  4. An empty extraction is rejected with [ErrEmptyExtraction]
//  5. [Orchestrator.Classify] classifies every text concurrently
//  6. [Aggregate] tallies labels into a [BatchResult]
//
// Steps 1-4 fail closed: any error aborts the request. Step 5 fails open:
// a classifier error replaces that item with a degraded neutral result, so
// the output always has one result per input text, in input order.
//
// # Field Detection
//
// CSV columns and JSON keys are located with ordered [Candidates] lists.
// For CSV the first matching header wins, falling back to the first
// column. For JSON the candidate order decides.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: document errors (size, parsing, format, empty)
//   - VAL001-VAL002: request validation
//   - UPL002-UPL005: capacity, cancellation, timeout
//   - MDL001: model not ready
//   - HIST001: unknown analysis
package core
