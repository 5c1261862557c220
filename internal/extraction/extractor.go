// Package extraction turns source document bundles into plain text plus a
// structural outline. Extraction is deterministic: the same bytes always
// produce the same text and sections, so a retried job reproduces its
// artifacts exactly.
package extraction

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// CodeBlock is a code sample found in a source document.
type CodeBlock struct {
	Language       string `json:"language,omitempty"`
	Content        string `json:"content"`
	ContextHeading string `json:"context_heading"`
	PageNumber     int    `json:"page_number"`
}

// Document is the extraction result for a single source file.
type Document struct {
	FileName          string
	TotalPages        int
	RawText           string
	Sections          []domain.Section
	CodeBlocks        []CodeBlock
	WordCount         int
	DetectedLanguages []string
	DetectedTopics    []string
}

// Bundle is the merged extraction result for a whole source bundle. Section
// page numbers are global: each file's pages continue where the previous
// file's ended, so a section can be traced back to its position in the
// combined text.
type Bundle struct {
	Text              string
	Sections          []domain.Section
	CodeBlocks        []CodeBlock
	TotalPages        int
	WordCount         int
	DetectedLanguages []string
	DetectedTopics    []string
}

// Extractor reads and extracts source document bundles.
type Extractor struct {
	reader *Reader
	logger *slog.Logger
}

// NewExtractor creates an Extractor with the given per-file size and bundle
// count limits. If logger is nil, a default logger will be used.
func NewExtractor(maxFileBytes int64, maxFiles int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		reader: NewReader(maxFileBytes, maxFiles),
		logger: logger.With(slog.String("component", "extractor")),
	}
}

// ExtractBundle loads and extracts every file in the bundle, in the
// caller's order, and merges the results with global page offsets.
func (e *Extractor) ExtractBundle(ctx context.Context, files []domain.SourceFile) (*Bundle, error) {
	payload, err := e.reader.Read(ctx, files)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{}
	var textParts []string
	languages := make(map[string]bool)
	topics := make(map[string]bool)

	for _, source := range payload.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := extractSource(source)
		if err != nil {
			return nil, err
		}

		pageOffset := bundle.TotalPages
		for _, section := range doc.Sections {
			section.PageNumber += pageOffset
			bundle.Sections = append(bundle.Sections, section)
		}
		for _, block := range doc.CodeBlocks {
			block.PageNumber += pageOffset
			bundle.CodeBlocks = append(bundle.CodeBlocks, block)
		}

		bundle.TotalPages += doc.TotalPages
		bundle.WordCount += doc.WordCount
		textParts = append(textParts, doc.RawText)
		for _, lang := range doc.DetectedLanguages {
			languages[lang] = true
		}
		for _, topic := range doc.DetectedTopics {
			topics[topic] = true
		}

		e.logger.DebugContext(ctx, "extracted source file",
			slog.String("file_name", source.File.FileName),
			slog.Int("pages", doc.TotalPages),
			slog.Int("sections", len(doc.Sections)))
	}

	bundle.Text = strings.Join(textParts, "\n\n")
	bundle.DetectedLanguages = sortedKeys(languages)
	bundle.DetectedTopics = sortedKeys(topics)
	return bundle, nil
}

func extractSource(source RawSource) (*Document, error) {
	switch source.Kind {
	case KindPDF:
		return extractPDF(source.Data, source.File.FileName)
	case KindMarkdown:
		return extractMarkdown(source.Data, source.File.FileName)
	default:
		return extractText(source.Data, source.File.FileName)
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// detectTopics scans the text for well-known topic keywords. Results are
// sorted so extraction output is stable.
func detectTopics(text string) []string {
	keywords := []string{
		"api", "authentication", "css", "database", "deployment",
		"html", "javascript", "python", "react", "rust",
		"svelte", "testing", "typescript", "vue",
	}

	lower := strings.ToLower(text)
	var topics []string
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			topics = append(topics, keyword)
		}
	}
	return topics
}

// detectLanguage guesses the language of a code sample from telltale
// keywords. Returns "" when nothing matches.
func detectLanguage(code string) string {
	switch {
	case strings.Contains(code, "fn ") || strings.Contains(code, "impl ") || strings.Contains(code, "pub "):
		return "rust"
	case strings.Contains(code, "func ") || strings.Contains(code, "package "):
		return "go"
	case strings.Contains(code, "const ") || strings.Contains(code, "let ") || strings.Contains(code, "function "):
		return "javascript"
	case strings.Contains(code, "def ") || strings.Contains(code, "import "):
		return "python"
	case strings.Contains(code, "{") && strings.Contains(code, "}") && strings.Contains(code, ":"):
		return "css"
	default:
		return ""
	}
}

// estimateComplexity scores a section from 1 to 5 based on its size, code
// presence and technical vocabulary.
func estimateComplexity(content string, hasCode bool) int {
	score := 1

	if hasCode {
		score += 2
	}
	if len(content) > 2000 {
		score++
	}
	if len(content) > 5000 {
		score++
	}

	technicalKeywords := []string{
		"algorithm", "implementation", "architecture", "async",
		"await", "closure", "generic", "trait", "interface",
	}
	lower := strings.ToLower(content)
	for _, keyword := range technicalKeywords {
		if strings.Contains(lower, keyword) {
			score++
			break
		}
	}

	if score > 5 {
		score = 5
	}
	return score
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func hasListMarkers(content string) bool {
	return strings.Contains(content, "- ") || strings.Contains(content, "* ")
}
