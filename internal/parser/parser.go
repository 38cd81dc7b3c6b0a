package parser

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser parses Python source files using the tree-sitter grammar
type Parser struct {
	parser *sitter.Parser
}

// New creates a Parser with the Python grammar loaded
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Close releases the underlying tree-sitter parser
func (p *Parser) Close() {
	p.parser.Close()
}

// ParseResult is the outcome of parsing one source file
type ParseResult struct {
	AST      *Node
	Source   []byte // decoded UTF-8 source
	Encoding string // encoding the raw bytes were decoded with
}

// Decode converts raw file bytes to UTF-8, trying encodings in fixed
// priority: utf-8, utf-8-sig, latin1, cp1252. The first successful decode
// wins.
func Decode(raw []byte) ([]byte, string, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		stripped := raw[len(utf8BOM):]
		if utf8.Valid(stripped) {
			return stripped, "utf-8-sig", nil
		}
	} else if utf8.Valid(raw) {
		return raw, "utf-8", nil
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
		return decoded, "latin1", nil
	}
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
		return decoded, "cp1252", nil
	}
	return nil, "", fmt.Errorf("no supported encoding could decode the file")
}

// Parse decodes and parses raw source bytes into an AST. A syntax error
// anywhere in the file is reported as an error; no partial AST is returned.
func (p *Parser) Parse(ctx context.Context, raw []byte) (*ParseResult, error) {
	source, encoding, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax errors found in source")
	}

	ast := NewASTBuilder(source).Build(root)
	return &ParseResult{
		AST:      ast,
		Source:   source,
		Encoding: encoding,
	}, nil
}
