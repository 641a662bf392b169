package telegram

import (
	"bytes"
	"html"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// htmlRenderer writes the subset of HTML the Bot API accepts with
// ParseMode HTML: b, i, s, code, pre, a and blockquote.
type htmlRenderer struct{}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRenderer(renderer.NewRenderer(
		renderer.WithNodeRenderers(util.Prioritized(htmlRenderer{}, 100)),
	)),
)

// toHTML converts model markdown to Telegram HTML. ok is false when the
// text should be sent as-is.
func toHTML(text string) (out string, ok bool) {
	if strings.TrimSpace(text) == "" {
		return text, false
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return text, false
	}
	out = strings.TrimSpace(buf.String())
	if out == "" {
		return text, false
	}
	return out, true
}

func (r htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindDocument, r.passThrough)
	reg.Register(ast.KindParagraph, r.paragraph)
	reg.Register(ast.KindHeading, r.heading)
	reg.Register(ast.KindCodeBlock, r.codeBlock)
	reg.Register(ast.KindFencedCodeBlock, r.codeBlock)
	reg.Register(ast.KindBlockquote, r.blockquote)
	reg.Register(ast.KindList, r.list)
	reg.Register(ast.KindListItem, r.listItem)
	reg.Register(ast.KindThematicBreak, r.thematicBreak)
	reg.Register(ast.KindHTMLBlock, r.skip)
	reg.Register(ast.KindTextBlock, r.passThrough)

	reg.Register(ast.KindText, r.text)
	reg.Register(ast.KindString, r.str)
	reg.Register(ast.KindEmphasis, r.emphasis)
	reg.Register(ast.KindCodeSpan, r.codeSpan)
	reg.Register(ast.KindLink, r.link)
	reg.Register(ast.KindAutoLink, r.autoLink)
	reg.Register(ast.KindImage, r.skip)
	reg.Register(ast.KindRawHTML, r.skip)

	reg.Register(east.KindStrikethrough, r.strikethrough)
	reg.Register(east.KindTaskCheckBox, r.taskCheckBox)
	reg.Register(east.KindTable, r.table)
	reg.Register(east.KindTableHeader, r.passThrough)
	reg.Register(east.KindTableRow, r.passThrough)
	reg.Register(east.KindTableCell, r.passThrough)
}

func (htmlRenderer) passThrough(w util.BufWriter, _ []byte, _ ast.Node, _ bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

func (htmlRenderer) skip(w util.BufWriter, _ []byte, _ ast.Node, _ bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}

func (htmlRenderer) paragraph(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		if _, inList := node.Parent().(*ast.ListItem); !inList {
			_, _ = w.WriteString("\n\n")
		}
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) heading(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<b>")
	} else {
		_, _ = w.WriteString("</b>\n\n")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) codeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("<pre>")
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.WriteString(html.EscapeString(string(line.Value(source))))
	}
	_, _ = w.WriteString("</pre>\n\n")
	return ast.WalkSkipChildren, nil
}

func (htmlRenderer) blockquote(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<blockquote>")
	} else {
		_, _ = w.WriteString("</blockquote>\n")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) list(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) listItem(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("\n")
		return ast.WalkContinue, nil
	}
	if l, ok := node.Parent().(*ast.List); ok && l.IsOrdered() {
		n := l.Start
		for s := node.PreviousSibling(); s != nil; s = s.PreviousSibling() {
			n++
		}
		_, _ = w.WriteString(strconv.Itoa(n) + ". ")
	} else {
		_, _ = w.WriteString("• ")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) thematicBreak(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("――――――\n\n")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) text(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Text)
	_, _ = w.WriteString(html.EscapeString(string(n.Segment.Value(source))))
	if n.SoftLineBreak() || n.HardLineBreak() {
		_, _ = w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) str(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(html.EscapeString(string(node.(*ast.String).Value)))
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) emphasis(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	tag := "i"
	if node.(*ast.Emphasis).Level == 2 {
		tag = "b"
	}
	if entering {
		_, _ = w.WriteString("<" + tag + ">")
	} else {
		_, _ = w.WriteString("</" + tag + ">")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) codeSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("<code>")
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			_, _ = w.WriteString(html.EscapeString(string(t.Segment.Value(source))))
		}
	}
	_, _ = w.WriteString("</code>")
	return ast.WalkSkipChildren, nil
}

func (htmlRenderer) link(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<a href="` + html.EscapeString(string(node.(*ast.Link).Destination)) + `">`)
	} else {
		_, _ = w.WriteString("</a>")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) autoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	url := html.EscapeString(string(node.(*ast.AutoLink).URL(source)))
	_, _ = w.WriteString(`<a href="` + url + `">` + url + "</a>")
	return ast.WalkSkipChildren, nil
}

func (htmlRenderer) strikethrough(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<s>")
	} else {
		_, _ = w.WriteString("</s>")
	}
	return ast.WalkContinue, nil
}

func (htmlRenderer) taskCheckBox(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		if node.(*east.TaskCheckBox).IsChecked {
			_, _ = w.WriteString("☑ ")
		} else {
			_, _ = w.WriteString("☐ ")
		}
	}
	return ast.WalkContinue, nil
}

// table renders a GFM table as aligned preformatted text, since Telegram
// has no table markup. Widths use display columns so CJK text lines up.
func (htmlRenderer) table(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var rows [][]string
	var widths []int
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			text := strings.TrimSpace(plainText(source, cell))
			col := len(cells)
			if col >= len(widths) {
				widths = append(widths, 0)
			}
			if cw := runewidth.StringWidth(text); cw > widths[col] {
				widths[col] = cw
			}
			cells = append(cells, text)
		}
		rows = append(rows, cells)
	}

	var b strings.Builder
	for i, cells := range rows {
		b.WriteString("|")
		for col, text := range cells {
			b.WriteString(" " + runewidth.FillRight(text, widths[col]) + " |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|")
			for _, width := range widths {
				b.WriteString(strings.Repeat("-", width+2) + "|")
			}
			b.WriteString("\n")
		}
	}

	_, _ = w.WriteString("<pre>" + html.EscapeString(b.String()) + "</pre>\n\n")
	return ast.WalkSkipChildren, nil
}

func plainText(source []byte, node ast.Node) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
