// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the transfer-engine pipeline:
// candidate URLs found by discovery, lines extracted from documents, curriculum
// matches, dimension scores, and the final per-university result. Every stage
// artifact is one of these structs serialized to JSON.
package types
