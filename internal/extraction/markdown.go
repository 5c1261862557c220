package extraction

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// extractMarkdown parses a markdown document into sections split on
// headings. Each heading starts a new "page", mirroring how the outline
// counts pages for non-paginated formats.
func extractMarkdown(source []byte, fileName string) (*Document, error) {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(source))

	var (
		sections       []domain.Section
		codeBlocks     []CodeBlock
		currentSection strings.Builder
		currentHeading = "Introduction"
		currentLevel   = 1
		pageNumber     = 1
		sectionHasCode bool
		sectionHasList bool
		languages      = make(map[string]bool)
	)

	flush := func() {
		content := strings.TrimSpace(currentSection.String())
		if content == "" {
			return
		}
		sections = append(sections, domain.Section{
			Heading:             currentHeading,
			Level:               currentLevel,
			Content:             content,
			PageNumber:          pageNumber,
			HasCode:             sectionHasCode,
			HasList:             sectionHasList,
			EstimatedComplexity: estimateComplexity(content, sectionHasCode),
		})
		currentSection.Reset()
		sectionHasCode = false
		sectionHasList = false
	}

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			flush()
			currentHeading = string(nodeText(n, source))
			currentLevel = n.Level
			pageNumber++

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := segmentText(n, source)
			if language != "" {
				languages[language] = true
			} else if detected := detectLanguage(content); detected != "" {
				languages[detected] = true
			}
			codeBlocks = append(codeBlocks, CodeBlock{
				Language:       language,
				Content:        content,
				ContextHeading: currentHeading,
				PageNumber:     pageNumber,
			})
			sectionHasCode = true
			currentSection.WriteString(content)
			currentSection.WriteString("\n")

		case *ast.CodeBlock:
			content := segmentText(n, source)
			codeBlocks = append(codeBlocks, CodeBlock{
				Language:       detectLanguage(content),
				Content:        content,
				ContextHeading: currentHeading,
				PageNumber:     pageNumber,
			})
			sectionHasCode = true
			currentSection.WriteString(content)
			currentSection.WriteString("\n")

		case *ast.List:
			sectionHasList = true
			currentSection.Write(nodeText(node, source))
			currentSection.WriteString("\n")

		default:
			text := nodeText(node, source)
			if len(text) > 0 {
				currentSection.Write(text)
				currentSection.WriteString("\n")
			}
		}
	}
	flush()

	text := string(source)
	return &Document{
		FileName:          fileName,
		TotalPages:        pageNumber,
		RawText:           text,
		Sections:          sections,
		CodeBlocks:        codeBlocks,
		WordCount:         countWords(text),
		DetectedLanguages: sortedKeys(languages),
		DetectedTopics:    detectTopics(text),
	}, nil
}

// nodeText collects the raw text of a node and its descendants.
func nodeText(node ast.Node, source []byte) []byte {
	var buf strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return []byte(buf.String())
}

// segmentText collects the raw lines of a block node such as a code block.
func segmentText(node ast.Node, source []byte) string {
	var buf strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return buf.String()
}
