// Package chunker splits knowledge documents into bounded chunks for
// embedding and retrieval.
//
// Every chunk's content is an exact substring of its parent document,
// addressed by byte offsets; that invariant is what lets retrieval results
// link back to precise document locations. Code documents split on
// top-level declaration boundaries (functions, classes, interfaces, import
// blocks); markdown-like documents split on headings, fenced code blocks,
// and paragraphs.
//
// Sizing is controlled by Config: blocks under MinTokens merge forward,
// blocks over MaxTokens are force-split at line boundaries with roughly
// Overlap tokens of carry-over context. Token counts use the chars/4
// heuristic shared with the rest of the system.
package chunker
