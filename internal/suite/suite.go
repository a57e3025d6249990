// Package suite loads benchmark suite files: Markdown documents that list
// debug-target workspaces together with the verdict each one is expected
// to produce.
package suite

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/debugbench/internal/models"
)

// Target is one benchmark entry: a workspace to evaluate and the reason
// its evaluation is expected to report.
type Target struct {
	Number    int
	Name      string
	Workspace string
	// Expect is the anticipated evaluation reason. Defaults to clean.
	Expect models.EvaluationReason
	// Notes is the free-form prose of the target section.
	Notes string
}

// Suite is a parsed benchmark suite file.
type Suite struct {
	Name string
	// Interactive selects debugger-session runs for every target.
	Interactive bool
	// Commands overrides the debugger command script for interactive runs.
	Commands []string
	Targets  []Target
}

// suiteConfig is the optional YAML frontmatter of a suite file.
type suiteConfig struct {
	Mode     string   `yaml:"mode"`
	Commands []string `yaml:"commands"`
}

// Parser loads suite files.
type Parser struct {
	markdown goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{markdown: goldmark.New()}
}

var (
	targetHeadingPattern = regexp.MustCompile(`^Target\s+(\d+):\s+(.+)$`)
	workspacePattern     = regexp.MustCompile(`(?m)^\s*(?:[-*]\s*)?\*{0,2}Workspace\*{0,2}:\s*(.+?)\s*$`)
	expectPattern        = regexp.MustCompile(`(?m)^\s*(?:[-*]\s*)?\*{0,2}Expect\*{0,2}:\s*(.+?)\s*$`)
)

// Parse reads one suite document. Each level-2 heading of the form
// "Target N: name" opens a target section; the section must carry a
// Workspace line and may carry an Expect line.
func (p *Parser) Parse(r io.Reader) (*Suite, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}

	suite := &Suite{}
	content, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		var cfg suiteConfig
		if err := yaml.Unmarshal(frontmatter, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		switch cfg.Mode {
		case "", "batch":
		case "interactive":
			suite.Interactive = true
		default:
			return nil, fmt.Errorf("unknown suite mode %q", cfg.Mode)
		}
		suite.Commands = cfg.Commands
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))

	// Collect heading positions first, then slice the source between
	// consecutive target headings for the metadata lines.
	type section struct {
		number int
		name   string
		start  int // byte offset just past the heading line
	}
	var title string
	var sections []section
	var boundaries []int // start offsets of all level-2 headings

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		line := heading.Lines().At(0)

		if heading.Level == 1 && title == "" {
			title = extractText(heading, content)
			return ast.WalkContinue, nil
		}
		if heading.Level != 2 {
			return ast.WalkContinue, nil
		}

		boundaries = append(boundaries, line.Start)
		headingText := extractText(heading, content)
		if match := targetHeadingPattern.FindStringSubmatch(headingText); match != nil {
			number, _ := strconv.Atoi(match[1])
			sections = append(sections, section{
				number: number,
				name:   strings.TrimSpace(match[2]),
				start:  line.Stop,
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	suite.Name = title
	for _, sec := range sections {
		end := len(content)
		for _, b := range boundaries {
			if b > sec.start && b < end {
				end = b
			}
		}
		// Heading line offsets point at the heading text, so the slice
		// can end with the next heading's "## " prefix.
		body := strings.TrimRight(string(content[sec.start:end]), "# \t")

		target := Target{
			Number: sec.number,
			Name:   sec.name,
			Expect: models.ReasonClean,
			Notes:  strings.TrimSpace(body),
		}
		if match := workspacePattern.FindStringSubmatch(body); match != nil {
			target.Workspace = strings.Trim(match[1], "`")
		}
		if match := expectPattern.FindStringSubmatch(body); match != nil {
			expect, err := parseExpect(strings.Trim(match[1], "`"))
			if err != nil {
				return nil, fmt.Errorf("target %d: %w", target.Number, err)
			}
			target.Expect = expect
		}
		if target.Workspace == "" {
			return nil, fmt.Errorf("target %d (%s) has no workspace", target.Number, target.Name)
		}
		suite.Targets = append(suite.Targets, target)
	}

	if len(suite.Targets) == 0 {
		return nil, fmt.Errorf("suite contains no targets")
	}
	return suite, nil
}

func parseExpect(s string) (models.EvaluationReason, error) {
	reason := models.EvaluationReason(strings.ToLower(s))
	switch reason {
	case models.ReasonClean, models.ReasonBuildFailed, models.ReasonCrash, models.ReasonMemoryFindings:
		return reason, nil
	default:
		return "", fmt.Errorf("unknown expectation %q", s)
	}
}

// extractFrontmatter splits optional YAML frontmatter from the document
// body.
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}
	return content, nil
}

// extractText renders the plain text of an AST node.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}
