package solverlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

// Parser turns one selection record and the branching lines printed ahead
// of it into a trace.Node.
type Parser struct {
	layout Layout
}

// NewParser creates a parser for the given layout.
func NewParser(layout Layout) *Parser {
	return &Parser{layout: layout}
}

// Layout returns the layout the parser reads.
func (p *Parser) Layout() Layout {
	return p.layout
}

// ParseNode parses the record at lines[end] together with the branching
// constraints in lines[start:end]. Both indices are 0-based and inclusive.
// A start beyond end means the record owns no branching lines.
//
// Preprocessing records yield (nil, nil). Malformed input yields a
// *ParseError and no node.
func (p *Parser) ParseNode(lines []string, start, end int) (*trace.Node, error) {
	if end < 0 || end >= len(lines) {
		return nil, &ParseError{Line: end + 1, Cause: ErrNoRecord}
	}

	tokens := p.tokenize(lines[end])
	f := p.layout.Fields

	id, err := p.intField(tokens, f.ID, "id", end)
	if err != nil {
		return nil, err
	}
	if trace.IsPreprocessing(id) {
		return nil, nil
	}

	node := trace.NewNode(id)
	if node.PrimalBound, err = p.floatField(tokens, f.PrimalBound, "primal_bound", end); err != nil {
		return nil, err
	}
	if node.LowerBound, err = p.floatField(tokens, f.LowerBound, "lower_bound", end); err != nil {
		return nil, err
	}
	if node.DualBound, err = p.floatField(tokens, f.DualBound, "dual_bound", end); err != nil {
		return nil, err
	}
	if f.UpperBound >= 0 {
		if node.UpperBound, err = p.floatField(tokens, f.UpperBound, "upper_bound", end); err != nil {
			return nil, err
		}
	}

	if len(tokens) > p.layout.TimingMinTokens {
		if err := p.parseTiming(node, tokens, end); err != nil {
			return nil, err
		}
	}

	if len(tokens) > p.layout.IncumbentsMinTokens {
		if err := p.parseIncumbents(node, tokens, end); err != nil {
			return nil, err
		}
	}

	branches, err := p.parseBranches(lines, start, end)
	if err != nil {
		return nil, err
	}
	node.Branches = branches

	return node, nil
}

func (p *Parser) tokenize(line string) []string {
	tokens := strings.Fields(line)
	if p.layout.ThreadPrefix != "" && len(tokens) > 0 && tokens[0] == p.layout.ThreadPrefix {
		tokens = tokens[1:]
	}
	return tokens
}

func (p *Parser) parseTiming(node *trace.Node, tokens []string, end int) error {
	f := p.layout.Fields
	var err error
	if node.Time, err = p.floatField(tokens, f.Time, "time", end); err != nil {
		return err
	}
	if node.Depth, err = p.intField(tokens, f.Depth, "depth", end); err != nil {
		return err
	}
	if node.Remaining, err = p.intField(tokens, f.Remaining, "remaining", end); err != nil {
		return err
	}
	// Older builds print a placeholder here; treat anything unreadable as 0.
	if f.BestIncumbentTime >= 0 && f.BestIncumbentTime < len(tokens) {
		if v, err := strconv.ParseFloat(tokens[f.BestIncumbentTime], 64); err == nil {
			node.BestIncumbentTime = v
		}
	}
	return nil
}

func (p *Parser) parseIncumbents(node *trace.Node, tokens []string, end int) error {
	from := p.layout.Fields.IncumbentsFrom
	for i := from; i < len(tokens); i++ {
		if !strings.Contains(tokens[i-1], p.layout.IncumbentTag) {
			continue
		}
		v, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return &ParseError{Line: end + 1, Field: "incumbent", Token: tokens[i], Cause: ErrBadNumber}
		}
		node.Incumbents = append(node.Incumbents, v)
	}
	return nil
}

// parseBranches walks backwards from the record to the previous selection
// boundary and returns the decisions root-first.
func (p *Parser) parseBranches(lines []string, start, end int) ([]trace.BranchDecision, error) {
	if start < 0 {
		start = 0
	}
	scanned := make([]trace.BranchDecision, 0)
	for i := end - 1; i >= start; i-- {
		line := lines[i]
		if strings.HasPrefix(line, p.layout.BoundaryPrefix) {
			break
		}
		d, ok, err := ParseBranchLine(line)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Field: "branch", Token: line, Cause: err}
		}
		if ok {
			scanned = append(scanned, d)
		}
	}

	// scanned is in reverse print order.
	if p.layout.BranchOrder != RootFirst {
		return scanned, nil
	}
	for i, j := 0, len(scanned)-1; i < j; i, j = i+1, j-1 {
		scanned[i], scanned[j] = scanned[j], scanned[i]
	}
	return scanned, nil
}

func (p *Parser) token(tokens []string, idx int, field string, end int) (string, error) {
	if idx < 0 || idx >= len(tokens) {
		return "", &ParseError{
			Line:  end + 1,
			Field: field,
			Cause: fmt.Errorf("%w: want index %d, have %d", ErrTooFewTokens, idx, len(tokens)),
		}
	}
	return tokens[idx], nil
}

func (p *Parser) intField(tokens []string, idx int, field string, end int) (int, error) {
	tok, err := p.token(tokens, idx, field, end)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, &ParseError{Line: end + 1, Field: field, Token: tok, Cause: ErrBadNumber}
	}
	return v, nil
}

func (p *Parser) floatField(tokens []string, idx int, field string, end int) (float64, error) {
	tok, err := p.token(tokens, idx, field, end)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, &ParseError{Line: end + 1, Field: field, Token: tok, Cause: ErrBadNumber}
	}
	return v, nil
}
