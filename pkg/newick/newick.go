package newick

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phylotangle/phylotangle/pkg/tree"
)

// lengthPrecision bounds the number of significant digits emitted for
// branch lengths and bootstrap values.
const lengthPrecision = 10

// payloadCodec implements the Newick payload rules shared by leaves and
// internal nodes: an optional name, an optional bootstrap value, and a
// branch length, colon-separated.
//
// Field disambiguation on decode:
//   - no ':' present: the whole payload is the name
//   - 2 fields: the first is a bootstrap value if it parses as a
//     number, otherwise a name; the second is always the length
//   - 3 fields: name, bootstrap, length in that order
//   - anything else: malformed
type payloadCodec struct{}

func (payloadCodec) CreateNode() *tree.Node { return &tree.Node{} }

func (payloadCodec) ParseNode(n *tree.Node, payload string) error {
	if payload == "" {
		return nil
	}
	fields := strings.Split(payload, ":")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	switch len(fields) {
	case 1:
		n.Name = fields[0]
		return nil
	case 2:
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
			n.Bootstrap = v
		} else {
			n.Name = fields[0]
		}
		return parseLength(n, fields[1], payload)
	case 3:
		n.Name = fields[0]
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("%w: bad bootstrap value %q in %q", ErrMalformedPayload, fields[1], payload)
		}
		n.Bootstrap = v
		return parseLength(n, fields[2], payload)
	default:
		return fmt.Errorf("%w: %d fields in %q", ErrMalformedPayload, len(fields), payload)
	}
}

func parseLength(n *tree.Node, field, payload string) error {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return fmt.Errorf("%w: bad branch length %q in %q", ErrMalformedPayload, field, payload)
	}
	n.Length = v
	return nil
}

func (payloadCodec) CodeNode(n *tree.Node) string {
	var b strings.Builder
	b.WriteString(n.Name)
	if n.Bootstrap != 0 {
		b.WriteByte(':')
		b.WriteString(formatNumber(n.Bootstrap))
	}
	b.WriteByte(':')
	b.WriteString(formatNumber(n.Length))
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', lengthPrecision, 64)
}

// Decode parses a single Newick tree from input using the standard
// payload codecs. See [Decoder.Decode] for error behavior.
func Decode(input string) (*tree.Node, error) {
	d := &Decoder{Leaf: payloadCodec{}, Internal: payloadCodec{}}
	return d.Decode(input)
}

// Encode renders the tree rooted at root as a ';'-terminated Newick
// string using the standard payload codecs. Names are emitted only when
// non-empty, bootstrap values only when non-zero, and branch lengths
// always, with bounded decimal precision.
func Encode(root *tree.Node) string {
	e := &Encoder{Leaf: payloadCodec{}, Internal: payloadCodec{}}
	return e.Encode(root)
}
