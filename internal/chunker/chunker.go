package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/devctx/knowctx/pkg/types"
)

// Config controls how documents are split into chunks
type Config struct {
	MaxTokens         int  // Target maximum estimated tokens per chunk
	MinTokens         int  // Blocks smaller than this merge with their neighbor
	Overlap           int  // Approximate token overlap between forced splits
	RespectBoundaries bool // Never split a structural block mid-body
}

// DefaultConfig returns the chunking configuration used by ingestion
func DefaultConfig() Config {
	return Config{
		MaxTokens:         500,
		MinTokens:         20,
		Overlap:           40,
		RespectBoundaries: true,
	}
}

// Chunker splits documents into bounded, boundary-respecting chunks whose
// content is always an exact substring of the parent document
type Chunker struct {
	config Config
}

// New creates a Chunker with the given configuration
func New(config Config) *Chunker {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultConfig().MaxTokens
	}
	if config.MinTokens < 0 {
		config.MinTokens = 0
	}
	if config.Overlap < 0 {
		config.Overlap = 0
	}
	return &Chunker{config: config}
}

// block is a structural unit of the document before sizing is applied
type block struct {
	start     int // Byte offset into the document content
	end       int
	chunkType types.ChunkType
}

// ChunkDocument splits a document into chunks. Code sources split on
// top-level declaration boundaries; markdown-like sources split on
// headings, fenced code blocks, and paragraphs. Oversized blocks are
// force-split at line boundaries with overlap; undersized blocks merge
// forward into their neighbor.
func (c *Chunker) ChunkDocument(doc *types.Document) ([]*types.Chunk, error) {
	if doc.Content == "" {
		return nil, fmt.Errorf("document %s has no content", doc.ID)
	}

	var blocks []block
	switch doc.Source.Type {
	case types.SourceCode:
		blocks = c.scanCodeBlocks(doc.Content)
	default:
		blocks = c.scanProseBlocks(doc.Content)
	}

	blocks = c.mergeSmallBlocks(doc.Content, blocks)
	blocks = c.splitOversizedBlocks(doc.Content, blocks)

	chunks := make([]*types.Chunk, 0, len(blocks))
	for _, b := range blocks {
		content := doc.Content[b.start:b.end]
		if strings.TrimSpace(content) == "" {
			continue
		}

		chunk := &types.Chunk{
			ID:          uuid.NewString(),
			DocumentID:  doc.ID,
			Content:     content,
			StartOffset: b.start,
			EndOffset:   b.end,
			Type:        b.chunkType,
		}
		chunk.Metadata.LineStart = lineAt(doc.Content, b.start)
		chunk.Metadata.LineEnd = lineAt(doc.Content, b.end-1)
		chunk.EstimateTokens()
		annotateBlock(chunk)

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Declaration openers recognized across the languages we ingest
var (
	functionPattern  = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?(?:func|function|def|fn)\b`)
	classPattern     = regexp.MustCompile(`^\s*(?:export\s+)?(?:abstract\s+)?(?:class|struct)\b|^\s*type\s+\w+\s+struct\b`)
	interfacePattern = regexp.MustCompile(`^\s*(?:export\s+)?interface\b|^\s*type\s+\w+\s+interface\b`)
	importPattern    = regexp.MustCompile(`^\s*(?:import|from|require|use|#include)\b`)
	componentPattern = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:const|let|var)\s+[A-Z]\w*\s*[:=]`)
	namePattern      = regexp.MustCompile(`(?:func|function|def|fn|class|struct|interface|type)\s+(?:\([^)]*\)\s*)?(\w+)`)
)

// scanCodeBlocks splits source code on blank-line-separated top-level
// blocks and classifies each by its opening line
func (c *Chunker) scanCodeBlocks(content string) []block {
	var blocks []block

	offset := 0
	for _, raw := range strings.Split(content, "\n\n") {
		start := offset
		end := start + len(raw)
		offset = end + 2 // Account for the separator

		if strings.TrimSpace(raw) == "" {
			continue
		}

		blocks = append(blocks, block{
			start:     start,
			end:       end,
			chunkType: classifyCode(raw),
		})
	}

	return blocks
}

func classifyCode(text string) types.ChunkType {
	firstLine := text
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		firstLine = line
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") {
			// Keep scanning: a comment block may precede the declaration
			continue
		}
		break
	}

	switch {
	case interfacePattern.MatchString(firstLine):
		return types.ChunkInterface
	case classPattern.MatchString(firstLine):
		return types.ChunkClass
	case componentPattern.MatchString(firstLine):
		return types.ChunkComponent
	case functionPattern.MatchString(firstLine):
		return types.ChunkFunction
	case importPattern.MatchString(firstLine):
		return types.ChunkImportBlock
	case isCommentOnly(text):
		return types.ChunkCommentBlock
	default:
		return types.ChunkGeneric
	}
}

func isCommentOnly(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "#") &&
			!strings.HasPrefix(trimmed, "/*") && !strings.HasPrefix(trimmed, "*") {
			return false
		}
	}
	return true
}

// scanProseBlocks splits markdown-like content on headings and blank
// lines, keeping fenced code blocks atomic
func (c *Chunker) scanProseBlocks(content string) []block {
	var blocks []block

	lines := strings.Split(content, "\n")
	offsets := lineOffsets(content)

	blockStart := -1
	blockType := types.ChunkParagraph
	inFence := false

	flush := func(endLine int) {
		if blockStart < 0 {
			return
		}
		start := offsets[blockStart]
		end := len(content)
		if endLine < len(offsets) {
			end = offsets[endLine] - 1 // Exclude the trailing newline
		}
		if end > start {
			blocks = append(blocks, block{start: start, end: end, chunkType: blockType})
		}
		blockStart = -1
		blockType = types.ChunkParagraph
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				inFence = false
				flush(i + 1)
				continue
			}
			flush(i)
			inFence = true
			blockStart = i
			blockType = types.ChunkCodeBlock
			continue
		}

		if inFence {
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			flush(i)
			blockStart = i
			blockType = types.ChunkSection
			continue
		}

		if trimmed == "" {
			flush(i)
			continue
		}

		if blockStart < 0 {
			blockStart = i
			blockType = types.ChunkParagraph
		}
	}
	flush(len(lines))

	return blocks
}

// mergeSmallBlocks folds blocks under MinTokens into the following block
// so trivial fragments do not become standalone chunks
func (c *Chunker) mergeSmallBlocks(content string, blocks []block) []block {
	if c.config.MinTokens <= 0 || len(blocks) < 2 {
		return blocks
	}

	merged := make([]block, 0, len(blocks))
	for _, b := range blocks {
		size := types.EstimateTokens(content[b.start:b.end])
		if len(merged) > 0 {
			prev := &merged[len(merged)-1]
			prevSize := types.EstimateTokens(content[prev.start:prev.end])
			if prevSize < c.config.MinTokens && prevSize+size <= c.config.MaxTokens {
				prev.end = b.end
				if prev.chunkType != b.chunkType {
					prev.chunkType = pickMergedType(prev.chunkType, b.chunkType)
				}
				continue
			}
		}
		merged = append(merged, b)
	}

	return merged
}

// pickMergedType keeps the more specific type when a heading or comment
// fragment merges into the block it introduces
func pickMergedType(a, b types.ChunkType) types.ChunkType {
	if a == types.ChunkSection || a == types.ChunkCommentBlock {
		return b
	}
	return a
}

// splitOversizedBlocks force-splits any block exceeding MaxTokens at line
// boundaries. When RespectBoundaries is set the split backs off to the
// last blank line inside the window so a structural unit is not cut
// mid-body when any better cut exists. Consecutive pieces overlap by
// roughly Overlap tokens for context continuity.
func (c *Chunker) splitOversizedBlocks(content string, blocks []block) []block {
	var out []block

	maxBytes := c.config.MaxTokens * 4 // Inverse of the chars/4 estimate
	overlapBytes := c.config.Overlap * 4

	for _, b := range blocks {
		if b.end-b.start <= maxBytes {
			out = append(out, b)
			continue
		}

		start := b.start
		for start < b.end {
			end := start + maxBytes
			if end >= b.end {
				out = append(out, block{start: start, end: b.end, chunkType: b.chunkType})
				break
			}

			cut := findCut(content, start, end, c.config.RespectBoundaries)
			out = append(out, block{start: start, end: cut, chunkType: b.chunkType})

			next := cut - overlapBytes
			if next <= start {
				next = cut
			}
			// Resume at a line start so every piece remains line-aligned
			start = lineStartAt(content, next)
			if start <= out[len(out)-1].start {
				start = cut
			}
		}
	}

	return out
}

// findCut picks a split point in (start, limit]: the last blank line when
// boundaries are respected, otherwise the last newline, falling back to a
// hard byte cut
func findCut(content string, start, limit int, respectBoundaries bool) int {
	window := content[start:limit]

	if respectBoundaries {
		if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
			return start + idx + 1
		}
	}
	if idx := strings.LastIndex(window, "\n"); idx > 0 {
		return start + idx + 1
	}
	return limit
}

// annotateBlock extracts a name and signature for declaration chunks
func annotateBlock(chunk *types.Chunk) {
	switch chunk.Type {
	case types.ChunkFunction, types.ChunkClass, types.ChunkInterface, types.ChunkComponent:
	default:
		return
	}

	for _, line := range strings.Split(chunk.Content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := namePattern.FindStringSubmatch(trimmed); m != nil {
			chunk.Metadata.Name = m[1]
			chunk.Metadata.Signature = strings.TrimSuffix(strings.TrimSpace(trimmed), "{")
			chunk.Metadata.Signature = strings.TrimSpace(chunk.Metadata.Signature)
		}
		break
	}
}

// lineOffsets returns the byte offset of the start of each line
func lineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineAt returns the 1-based line number containing the byte offset
func lineAt(content string, offset int) int {
	if offset < 0 {
		offset = 0
	}
	line := 1
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
		}
	}
	return line
}

// lineStartAt returns the offset of the start of the line containing pos
func lineStartAt(content string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos > len(content) {
		pos = len(content)
	}
	idx := strings.LastIndexByte(content[:pos], '\n')
	return idx + 1
}
