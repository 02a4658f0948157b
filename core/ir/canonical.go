package ir

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Digest is the structural hash of a tree.
type Digest [blake2b.Size256]byte

func (d Digest) String() string { return hex.EncodeToString(d[:8]) }

// canonicalNode is one tree node in hashing form. Children appear as the
// digests of their subtrees, so equal subtrees hash identically wherever they
// occur.
type canonicalNode struct {
	Version  uint8
	Kind     string
	Attrs    []string
	Type     string
	Target   string
	Children []canonicalEdge
}

type canonicalEdge struct {
	Field string
	Index int
	Hash  []byte
}

const canonicalVersion = 1

var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor canonical mode: %v", err))
	}
	return em
}()

type digestCell struct {
	once sync.Once
	d    Digest
}

// Hash returns the structural hash of n: kind, scalar attributes, type
// annotation and children, recursively. Sharing is invisible to the hash.
// Nodes are immutable, so each node computes its digest once.
func Hash(n Node) Digest {
	c := n.NodeInfo().digest
	if c == nil {
		return digest(n)
	}
	c.once.Do(func() { c.d = digest(n) })
	return c.d
}

func digest(n Node) Digest {
	rec := canonicalNode{
		Version: canonicalVersion,
		Kind:    n.Kind().String(),
		Attrs:   attrs(n),
		Target:  n.NodeInfo().TargetType,
	}
	if t := n.NodeInfo().Type; t != nil {
		rec.Type = t.String()
	}
	for _, e := range n.edges() {
		h := Hash(e.Node)
		rec.Children = append(rec.Children, canonicalEdge{Field: e.Fragment.Field, Index: e.Fragment.Index, Hash: h[:]})
	}
	data, err := encMode.Marshal(rec)
	if err != nil {
		panic(fmt.Sprintf("cbor encode %s: %v", n.Kind(), err))
	}
	return blake2b.Sum256(data)
}

// Equal reports structural equality, annotations included.
func Equal(a, b Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}
	return Hash(a) == Hash(b)
}

// attrs lists the non-child fields of n.
func attrs(n Node) []string {
	switch n := n.(type) {
	case *Integer:
		return []string{n.Value.String()}
	case *Text:
		return []string{n.Value}
	case *Identifier:
		return []string{n.Name, strconv.FormatBool(n.Builtin)}
	case *VarDeclaration:
		return []string{n.VariableType.String()}
	case *MutatingInfix:
		return []string{n.Name}
	case *Op:
		return []string{n.Op.String()}
	case *FunctionCall:
		return []string{n.Name}
	case *MethodCall:
		return []string{n.Name}
	case *PropertyCall:
		return []string{n.Name}
	case *Infix:
		return []string{n.Name}
	case *Prefix:
		return []string{n.Name}
	case *ForRange:
		return []string{strconv.FormatBool(n.Inclusive)}
	case *ImplicitConversion:
		return []string{n.Behavior.String()}
	case *Import:
		return []string{n.Name, strings.Join(n.Modules, "\x00")}
	case *NamedArg:
		return []string{n.Name}
	}
	return nil
}
