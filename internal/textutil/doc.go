// Package textutil provides text processing utilities for keyword
// extraction and similarity scoring.
//
// The primary use cases are:
//   - Tokenizing product names and descriptions into the lowercase
//     keyword blobs stored on recall records
//   - Creating term-frequency fingerprints from text for comparison
//   - Scoring fuzzy name matches by token overlap
//
// Fingerprints use term frequency vectors normalized for efficient
// comparison. The tokenization process lowercases text, splits on
// non-alphanumeric characters, and filters tokens shorter than 3
// characters.
package textutil
