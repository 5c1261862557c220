package extraction

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// extractPDF extracts text page by page and splits it into sections using
// layout heuristics: all-caps lines, "Chapter"/"Section"/"Part" prefixes
// and short trailing-colon lines start a new section. Indented runs are
// treated as code samples.
func extractPDF(source []byte, fileName string) (*Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrExtractionFailed, fileName, err)
	}

	totalPages := reader.NumPage()

	type pagedLine struct {
		text string
		page int
	}
	var lines []pagedLine
	var rawText strings.Builder

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of %s: %v", ErrExtractionFailed, pageNum, fileName, err)
		}
		rawText.WriteString(pageText)
		rawText.WriteString("\n")
		for _, line := range strings.Split(pageText, "\n") {
			lines = append(lines, pagedLine{text: line, page: pageNum})
		}
	}

	var (
		sections       []domain.Section
		codeBlocks     []CodeBlock
		currentSection strings.Builder
		currentHeading = "Introduction"
		currentLevel   = 1
		currentPage    = 1
		inCodeBlock    bool
		codeContent    strings.Builder
		languages      = make(map[string]bool)
	)

	flush := func() {
		content := strings.TrimSpace(currentSection.String())
		if content == "" {
			return
		}
		hasCode := strings.Contains(content, "```") || strings.Contains(content, "    ")
		sections = append(sections, domain.Section{
			Heading:             currentHeading,
			Level:               currentLevel,
			Content:             content,
			PageNumber:          currentPage,
			HasCode:             hasCode,
			HasList:             hasListMarkers(content),
			EstimatedComplexity: estimateComplexity(content, hasCode),
		})
		currentSection.Reset()
	}

	endCodeBlock := func(page int) {
		if !inCodeBlock {
			return
		}
		inCodeBlock = false
		content := codeContent.String()
		language := detectLanguage(content)
		if language != "" {
			languages[language] = true
		}
		codeBlocks = append(codeBlocks, CodeBlock{
			Language:       language,
			Content:        content,
			ContextHeading: currentHeading,
			PageNumber:     page,
		})
		codeContent.Reset()
	}

	for _, line := range lines {
		if strings.TrimSpace(line.text) == "" {
			continue
		}

		if isHeadingLine(line.text) {
			endCodeBlock(line.page)
			flush()
			currentHeading = strings.TrimSpace(line.text)
			currentLevel = headingLevel(line.text)
			currentPage = line.page
			continue
		}

		if strings.HasPrefix(line.text, "    ") || strings.HasPrefix(line.text, "\t") {
			if !inCodeBlock {
				inCodeBlock = true
				codeContent.Reset()
			}
			codeContent.WriteString(strings.TrimSpace(line.text))
			codeContent.WriteString("\n")
		} else {
			endCodeBlock(line.page)
		}

		currentSection.WriteString(line.text)
		currentSection.WriteString("\n")
	}
	endCodeBlock(currentPage)
	flush()

	text := rawText.String()
	if totalPages == 0 {
		totalPages = 1
	}
	return &Document{
		FileName:          fileName,
		TotalPages:        totalPages,
		RawText:           text,
		Sections:          sections,
		CodeBlocks:        codeBlocks,
		WordCount:         countWords(text),
		DetectedLanguages: sortedKeys(languages),
		DetectedTopics:    detectTopics(text),
	}, nil
}

// isHeadingLine reports whether a text line looks like a section heading.
func isHeadingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	return isAllCapsLine(trimmed) ||
		strings.HasPrefix(trimmed, "Chapter ") ||
		strings.HasPrefix(trimmed, "Section ") ||
		strings.HasPrefix(trimmed, "Part ") ||
		(len(trimmed) < 60 && strings.HasSuffix(trimmed, ":"))
}

func headingLevel(line string) int {
	switch {
	case strings.HasPrefix(line, "# "):
		return 1
	case strings.HasPrefix(line, "## "):
		return 2
	case strings.HasPrefix(line, "### "):
		return 3
	case isAllCapsLine(strings.TrimSpace(line)):
		return 1
	default:
		return 2
	}
}

// isAllCapsLine reports whether the line consists only of uppercase
// letters, digits and whitespace, with at least one letter.
func isAllCapsLine(line string) bool {
	hasLetter := false
	for _, r := range line {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
		case unicode.IsSpace(r) || unicode.IsDigit(r):
		default:
			return false
		}
	}
	return hasLetter
}
