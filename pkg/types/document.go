package types

import (
	"errors"
	"time"
)

// SourceType categorizes where a knowledge document came from
type SourceType string

const (
	SourceCode         SourceType = "code"
	SourceMarkdown     SourceType = "markdown"
	SourceArchitecture SourceType = "architecture"
	SourceDecision     SourceType = "decision"
	SourcePattern      SourceType = "pattern"
)

// QualityTier is an editorial confidence label on a source document
type QualityTier string

const (
	QualityGold   QualityTier = "gold"
	QualitySilver QualityTier = "silver"
	QualityBronze QualityTier = "bronze"
)

// DocumentSource describes the origin of a document
type DocumentSource struct {
	Type       SourceType `json:"type"`
	Repository string     `json:"repository,omitempty"`
	FilePath   string     `json:"filePath,omitempty"`
	URL        string     `json:"url,omitempty"`
}

// DocumentMetadata holds editorial metadata attached to a document
type DocumentMetadata struct {
	Title      string      `json:"title,omitempty"`
	Language   string      `json:"language,omitempty"`
	Frameworks []string    `json:"frameworks,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	Quality    QualityTier `json:"quality,omitempty"`
}

// Document is a unit of ingested knowledge: source code, markdown notes,
// architecture documents, decisions, or reusable patterns
type Document struct {
	ID        string           `json:"id"`
	Source    DocumentSource   `json:"source"`
	Content   string           `json:"content"`
	Metadata  DocumentMetadata `json:"metadata"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// DocumentMeta is the document-level projection the retrieval filter stage
// joins against. It carries only the fields filters can reference.
type DocumentMeta struct {
	SourceType SourceType  `json:"sourceType"`
	Repository string      `json:"repository,omitempty"`
	Language   string      `json:"language,omitempty"`
	Frameworks []string    `json:"frameworks,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	Quality    QualityTier `json:"quality,omitempty"`
}

// Meta returns the filterable projection of the document
func (d *Document) Meta() DocumentMeta {
	return DocumentMeta{
		SourceType: d.Source.Type,
		Repository: d.Source.Repository,
		Language:   d.Metadata.Language,
		Frameworks: d.Metadata.Frameworks,
		Tags:       d.Metadata.Tags,
		Quality:    d.Metadata.Quality,
	}
}

// ValidateSourceType checks if the source type is one of the known values
func (d *Document) ValidateSourceType() error {
	switch d.Source.Type {
	case SourceCode, SourceMarkdown, SourceArchitecture, SourceDecision, SourcePattern:
		return nil
	default:
		return errors.New("invalid source type")
	}
}

// Validate performs comprehensive validation of the document
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New("document ID is required")
	}

	if d.Content == "" {
		return errors.New("document content cannot be empty")
	}

	return d.ValidateSourceType()
}
