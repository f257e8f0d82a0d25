package arch

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ArchLexer defines the lexical structure of architecture description files.
// Keywords are case-insensitive; identifiers may not reuse them.
var ArchLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run from # to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Top-level statements
	{Name: "KwChannel", Pattern: `(?i)\bchannel\b`},
	{Name: "KwSegment", Pattern: `(?i)\bsegment\b`},
	{Name: "KwBlock", Pattern: `(?i)\bblock\b`},
	{Name: "KwGrid", Pattern: `(?i)\bgrid\b`},

	// Segment and block attributes
	{Name: "KwLength", Pattern: `(?i)\blength\b`},
	{Name: "KwFreq", Pattern: `(?i)\bfreq\b`},
	{Name: "KwSize", Pattern: `(?i)\bsize\b`},
	{Name: "KwClass", Pattern: `(?i)\bclass\b`},
	{Name: "KwPins", Pattern: `(?i)\bpins\b`},
	{Name: "KwFc", Pattern: `(?i)\bfc\b`},
	{Name: "KwPinloc", Pattern: `(?i)\bpinloc\b`},

	// Grid items
	{Name: "KwFill", Pattern: `(?i)\bfill\b`},
	{Name: "KwPerimeter", Pattern: `(?i)\bperimeter\b`},
	{Name: "KwPlace", Pattern: `(?i)\bplace\b`},
	{Name: "KwAt", Pattern: `(?i)\bat\b`},
	{Name: "KwUsage", Pattern: `(?i)\busage\b`},

	// Pin ranges (0..39) must be tried before reals
	{Name: "Range", Pattern: `\.\.`},

	{Name: "Real", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Integer", Pattern: `[0-9]+`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},

	{Name: "Punct", Pattern: `[{};,]`},
})
