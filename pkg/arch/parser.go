package arch

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

// Parser reads architecture description files.
type Parser struct {
	parser *participle.Parser[ArchFile]
}

// NewParser creates a new architecture parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[ArchFile](
		participle.Lexer(ArchLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// Parse parses an architecture description from a reader
func (p *Parser) Parse(r io.Reader) (*ArchFile, error) {
	file, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file, nil
}

// ParseString parses an architecture description from a string
func (p *Parser) ParseString(input string) (*ArchFile, error) {
	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file, nil
}

// ParseFile parses an architecture description from a file path
func (p *Parser) ParseFile(filename string) (*ArchFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Load parses and builds the architecture stored at path.
func Load(path string) (*Architecture, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	file, err := p.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("arch: %s: %w", path, err)
	}
	a, err := file.Build()
	if err != nil {
		return nil, fmt.Errorf("arch: %s: %w", path, err)
	}
	return a, nil
}

// LoadString parses and builds an architecture held in memory.
func LoadString(input string) (*Architecture, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	file, err := p.ParseString(input)
	if err != nil {
		return nil, err
	}
	return file.Build()
}
