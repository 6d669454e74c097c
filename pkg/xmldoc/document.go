// Package xmldoc parses XML payloads into documents the query evaluator can
// run XPath lookups against.
package xmldoc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document is a parsed XML payload.
type Document struct {
	root     *xmlquery.Node
	compiler *Compiler
}

// Compiler caches compiled expressions per namespace map. Safe for concurrent use.
type Compiler struct {
	namespaces map[string]string
	mu         sync.RWMutex
	exprs      map[string]*xpath.Expr
}

func NewCompiler(namespaces map[string]string) *Compiler {
	return &Compiler{namespaces: namespaces, exprs: make(map[string]*xpath.Expr)}
}

func (c *Compiler) compile(path string) (*xpath.Expr, error) {
	c.mu.RLock()
	expr, ok := c.exprs[path]
	c.mu.RUnlock()
	if ok {
		return expr, nil
	}

	expr, err := xpath.CompileWithNS(path, c.namespaces)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", path, err)
	}
	c.mu.Lock()
	c.exprs[path] = expr
	c.mu.Unlock()
	return expr, nil
}

// Parse reads payload as XML. ok is false when payload is not XML at all.
func (c *Compiler) Parse(payload string) (doc *Document, ok bool) {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "<") {
		return nil, false
	}
	root, err := xmlquery.Parse(strings.NewReader(trimmed))
	if err != nil || root == nil || root.FirstChild == nil {
		return nil, false
	}
	return &Document{root: root, compiler: c}, true
}

// Values returns the text of every node the path selects.
func (d *Document) Values(path string) ([]string, error) {
	expr, err := d.compiler.compile(path)
	if err != nil {
		return nil, err
	}
	nodes := xmlquery.QuerySelectorAll(d.root, expr)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.InnerText())
	}
	return out, nil
}
