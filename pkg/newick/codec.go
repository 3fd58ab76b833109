// Package newick implements the Newick text codec for phylogenetic
// trees, built on a small per-node codec framework.
//
// The framework separates the recursive grammar (parentheses and
// commas, handled by [Encoder] and [Decoder]) from per-node payload
// handling (names, bootstrap values, branch lengths, handled by a
// [NodeCodec] pair). The concrete Newick payload codecs live in this
// package too; [Decode] and [Encode] wire everything together for the
// common case.
//
// The grammar is:
//
//	tree      := subtree ';'
//	subtree   := leaf | internal
//	internal  := '(' subtree (',' subtree)* ')' [payload]
//	leaf      := [payload]
//	payload   := field (':' field)*
//
// Decoding aborts on the first error; no partial tree is returned.
package newick

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phylotangle/phylotangle/pkg/tree"
)

var (
	// ErrUnbalancedParens is returned by [Decoder.Decode] when the input
	// has mismatched parentheses. Detected before any node is built.
	ErrUnbalancedParens = errors.New("unbalanced parentheses")

	// ErrMissingTerminator is returned when the input does not end with
	// the ';' tree terminator.
	ErrMissingTerminator = errors.New("missing ';' terminator")

	// ErrEmptyInput is returned for input with no tree content.
	ErrEmptyInput = errors.New("empty input")

	// ErrMalformedPayload is returned when a node payload cannot be
	// split into valid name/bootstrap/length fields. The error message
	// names the offending substring.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrTrailingInput is returned when non-whitespace characters follow
	// the ';' terminator.
	ErrTrailingInput = errors.New("trailing input after terminator")
)

// NodeCodec translates between a single tree node and its textual
// payload. A codec pair (one for leaves, one for internal nodes) plugs
// into the generic [Encoder] and [Decoder], which drive the recursive
// grammar around them.
type NodeCodec interface {
	// CreateNode returns a fresh node for the decoder to populate.
	CreateNode() *tree.Node

	// ParseNode fills n from a textual payload. An empty payload is
	// valid and leaves the node anonymous.
	ParseNode(n *tree.Node, payload string) error

	// CodeNode renders n's payload for the encoder.
	CodeNode(n *tree.Node) string
}

// Encoder serializes trees using a leaf/internal codec pair. The
// traversal is post-order: children are rendered before the payload of
// their parent is appended.
type Encoder struct {
	Leaf     NodeCodec
	Internal NodeCodec
}

// Encode renders the tree rooted at root, terminated by ';'.
func (e *Encoder) Encode(root *tree.Node) string {
	var b strings.Builder
	e.encode(&b, root)
	b.WriteByte(';')
	return b.String()
}

func (e *Encoder) encode(b *strings.Builder, n *tree.Node) {
	if n.IsLeaf() {
		b.WriteString(e.Leaf.CodeNode(n))
		return
	}
	b.WriteByte('(')
	for i, c := range n.Children() {
		if i > 0 {
			b.WriteByte(',')
		}
		e.encode(b, c)
	}
	b.WriteByte(')')
	b.WriteString(e.Internal.CodeNode(n))
}

// Decoder parses trees using a leaf/internal codec pair via recursive
// descent over the parenthesis nesting.
type Decoder struct {
	Leaf     NodeCodec
	Internal NodeCodec
}

// Decode parses a single ';'-terminated tree. Parentheses are balance-
// checked up front so that no nodes are constructed for structurally
// broken input. Node IDs are assigned in pre-order starting at 0.
func (d *Decoder) Decode(input string) (*tree.Node, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, ErrEmptyInput
	}
	if err := checkBalance(s); err != nil {
		return nil, err
	}

	p := &parser{s: s, leaf: d.Leaf, internal: d.Internal}
	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.s) || p.s[p.pos] != ';' {
		return nil, fmt.Errorf("%w at offset %d", ErrMissingTerminator, p.pos)
	}
	p.pos++
	if rest := strings.TrimSpace(p.s[p.pos:]); rest != "" {
		return nil, fmt.Errorf("%w: %q", ErrTrailingInput, rest)
	}

	tree.AssignIDs(root, 0)
	return root, nil
}

// checkBalance verifies parenthesis nesting without building nodes.
func checkBalance(s string) error {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unexpected ')' at offset %d", ErrUnbalancedParens, i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed '('", ErrUnbalancedParens, depth)
	}
	return nil
}

// parser holds the recursive-descent state for one Decode call.
type parser struct {
	s        string
	pos      int
	leaf     NodeCodec
	internal NodeCodec
}

func (p *parser) subtree() (*tree.Node, error) {
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '(' {
		return p.internalNode()
	}
	n := p.leaf.CreateNode()
	if err := p.leaf.ParseNode(n, p.payload()); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) internalNode() (*tree.Node, error) {
	n := p.internal.CreateNode()
	p.pos++ // consume '('
	for {
		child, err := p.subtree()
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(child); err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	// Balance was checked up front, so a ')' is guaranteed here.
	p.pos++
	if err := p.internal.ParseNode(n, p.payload()); err != nil {
		return nil, err
	}
	return n, nil
}

// payload consumes text up to the next structural character and returns
// it with surrounding whitespace trimmed.
func (p *parser) payload() string {
	start := p.pos
	for p.pos < len(p.s) && !isStructural(p.s[p.pos]) {
		p.pos++
	}
	return strings.TrimSpace(p.s[start:p.pos])
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n' || p.s[p.pos] == '\r') {
		p.pos++
	}
}

func isStructural(c byte) bool {
	return c == '(' || c == ')' || c == ',' || c == ';'
}
