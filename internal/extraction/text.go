package extraction

import (
	"strings"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// extractText splits a plain text document into sections on blank lines.
// An all-caps line names the section that follows it. Each flushed section
// advances the page counter.
func extractText(source []byte, fileName string) (*Document, error) {
	content := string(source)

	var (
		sections       []domain.Section
		currentSection strings.Builder
		currentHeading = "Introduction"
		pageNumber     = 1
	)

	flush := func() bool {
		text := strings.TrimSpace(currentSection.String())
		if text == "" {
			return false
		}
		hasCode := strings.Contains(text, "    ")
		sections = append(sections, domain.Section{
			Heading:             currentHeading,
			Level:               1,
			Content:             text,
			PageNumber:          pageNumber,
			HasCode:             hasCode,
			HasList:             hasListMarkers(text),
			EstimatedComplexity: estimateComplexity(text, hasCode),
		})
		currentSection.Reset()
		return true
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if flush() {
				pageNumber++
			}
			continue
		}

		if isAllCapsLine(strings.TrimSpace(line)) {
			currentHeading = strings.TrimSpace(line)
			continue
		}

		currentSection.WriteString(line)
		currentSection.WriteString("\n")
	}
	flush()

	return &Document{
		FileName:       fileName,
		TotalPages:     pageNumber,
		RawText:        content,
		Sections:       sections,
		WordCount:      countWords(content),
		DetectedTopics: detectTopics(content),
	}, nil
}
