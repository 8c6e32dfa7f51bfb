package analysis

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rivo/tview"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// HTMLRenderer turns markdown into a sanitised HTML fragment.
type HTMLRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md:     goldmark.New(),
		policy: bluemonday.UGCPolicy(),
	}
}

func (r *HTMLRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return string(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// TerminalRenderer turns markdown into text with tview style tags.
type TerminalRenderer struct {
	md           goldmark.Markdown
	HeadingColor string
	CodeColor    string
}

func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{
		md:           goldmark.New(),
		HeadingColor: "yellow",
		CodeColor:    "aqua",
	}
}

type listState struct {
	ordered bool
	next    int
}

func (r *TerminalRenderer) Render(markdown string) (string, error) {
	src := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(src))

	var (
		sb    strings.Builder
		lists []*listState
	)
	blockEnd := func(n ast.Node) {
		if len(lists) > 0 {
			sb.WriteString("\n")
			return
		}
		if n.NextSibling() != nil {
			sb.WriteString("\n\n")
		}
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				fmt.Fprintf(&sb, "[%s::b]", r.HeadingColor)
			} else {
				sb.WriteString("[-::-]")
				blockEnd(n)
			}
		case *ast.Paragraph:
			if !entering {
				blockEnd(n)
			}
		case *ast.TextBlock:
			if !entering && len(lists) > 0 && n.NextSibling() != nil {
				sb.WriteString("\n")
			}
		case *ast.List:
			if entering {
				lists = append(lists, &listState{ordered: node.IsOrdered(), next: node.Start})
			} else {
				lists = lists[:len(lists)-1]
				if len(lists) == 0 && n.NextSibling() != nil {
					sb.WriteString("\n")
				}
			}
		case *ast.ListItem:
			if entering {
				l := lists[len(lists)-1]
				sb.WriteString(strings.Repeat("  ", len(lists)-1))
				if l.ordered {
					fmt.Fprintf(&sb, "%d. ", l.next)
					l.next++
				} else {
					sb.WriteString("• ")
				}
			} else if last := sb.String(); !strings.HasSuffix(last, "\n") {
				sb.WriteString("\n")
			}
		case *ast.Emphasis:
			if entering {
				if node.Level >= 2 {
					sb.WriteString("[::b]")
				} else {
					sb.WriteString("[::i]")
				}
			} else {
				sb.WriteString("[::-]")
			}
		case *ast.CodeSpan:
			if entering {
				fmt.Fprintf(&sb, "[%s]", r.CodeColor)
			} else {
				sb.WriteString("[-]")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				fmt.Fprintf(&sb, "[%s]", r.CodeColor)
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.WriteString("  ")
					sb.WriteString(tview.Escape(string(seg.Value(src))))
				}
				sb.WriteString("[-]")
				blockEnd(n)
				return ast.WalkSkipChildren, nil
			}
		case *ast.ThematicBreak:
			if entering {
				sb.WriteString(strings.Repeat("─", 20))
				blockEnd(n)
			}
		case *ast.Text:
			if entering {
				sb.WriteString(tview.Escape(string(node.Segment.Value(src))))
				if node.HardLineBreak() || node.SoftLineBreak() {
					sb.WriteString("\n")
				}
			}
		case *ast.String:
			if entering {
				sb.WriteString(tview.Escape(string(node.Value)))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
