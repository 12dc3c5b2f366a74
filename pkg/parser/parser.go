package parser

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/spotistats/models"
)

// ErrNoTables is returned when a document contains no usable <table>.
var ErrNoTables = errors.New("no tables found")

type Parser struct{}

// Parse reads raw markup into a document.
func (p *Parser) Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Tables extracts every non-empty table of doc, including nested ones.
func (p *Parser) Tables(doc *goquery.Document) []*models.Table {
	var tables []*models.Table
	doc.Find("table").Each(func(i int, s *goquery.Selection) {
		if table := extractTable(s); table != nil {
			tables = append(tables, table)
		}
	})
	return tables
}

// FirstTable returns the first table of doc or ErrNoTables.
func (p *Parser) FirstTable(doc *goquery.Document) (*models.Table, error) {
	tables := p.Tables(doc)
	if len(tables) == 0 {
		return nil, ErrNoTables
	}
	return tables[0], nil
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// cellText returns the visible text of a cell without citation superscripts.
func cellText(cell *goquery.Selection) string {
	c := cell.Clone()
	c.Find("sup.reference, style, [style*='display:none']").Remove()
	return normalizeText(c.Text())
}

type rawCell struct {
	text    string
	colspan int
	rowspan int
}

type rawRow struct {
	cells  []rawCell
	header bool
}

type pendingCell struct {
	text      string
	remaining int
}

// extractTable builds a rectangular table, copying rowspan/colspan cells into
// every slot they cover. Header rows are <thead> rows, or leading rows made only of <th>.
func extractTable(s *goquery.Selection) *models.Table {
	var rows []rawRow
	seenBody := false

	s.Find("tr").Each(func(i int, tr *goquery.Selection) {
		// Skip rows that belong to a nested table.
		if !tr.Closest("table").IsSelection(s) {
			return
		}

		var row rawRow
		allTH := true
		tr.ChildrenFiltered("th,td").Each(func(j int, cell *goquery.Selection) {
			if goquery.NodeName(cell) != "th" {
				allTH = false
			}
			row.cells = append(row.cells, rawCell{
				text:    cellText(cell),
				colspan: spanAttr(cell, "colspan"),
				rowspan: spanAttr(cell, "rowspan"),
			})
		})
		if len(row.cells) == 0 {
			return
		}

		inHead := goquery.NodeName(tr.Parent()) == "thead"
		row.header = inHead || (allTH && !seenBody)
		if !row.header {
			seenBody = true
		}
		rows = append(rows, row)
	})

	if len(rows) == 0 {
		return nil
	}

	grid := expandSpans(rows)

	var headers []string
	var body [][]string
	for i, cells := range grid {
		if rows[i].header {
			headers = cells
			continue
		}
		body = append(body, cells)
	}

	width := len(headers)
	if width == 0 {
		for _, r := range body {
			if len(r) > width {
				width = len(r)
			}
		}
		headers = make([]string, width)
		for i := range headers {
			headers[i] = strconv.Itoa(i)
		}
	}

	for i, r := range body {
		body[i] = fitWidth(r, width)
	}

	if len(body) == 0 && width == 0 {
		return nil
	}

	return &models.Table{
		Headers: headers,
		Rows:    body,
	}
}

// expandSpans lays cells out on a grid, carrying rowspan cells down into later rows.
func expandSpans(rows []rawRow) [][]string {
	grid := make([][]string, 0, len(rows))
	pending := map[int]*pendingCell{}

	takePending := func(out []string, col int) ([]string, bool) {
		p, ok := pending[col]
		if !ok {
			return out, false
		}
		out = append(out, p.text)
		p.remaining--
		if p.remaining == 0 {
			delete(pending, col)
		}
		return out, true
	}

	for _, row := range rows {
		var out []string
		for _, cell := range row.cells {
			for {
				var took bool
				out, took = takePending(out, len(out))
				if !took {
					break
				}
			}
			for k := 0; k < cell.colspan; k++ {
				col := len(out)
				out = append(out, cell.text)
				if cell.rowspan > 1 {
					pending[col] = &pendingCell{text: cell.text, remaining: cell.rowspan - 1}
				}
			}
		}
		// Trailing columns still covered by rowspans from above.
		for len(pending) > 0 {
			var took bool
			out, took = takePending(out, len(out))
			if !took {
				break
			}
		}
		grid = append(grid, out)
	}
	return grid
}

func spanAttr(cell *goquery.Selection, name string) int {
	v, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func fitWidth(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
