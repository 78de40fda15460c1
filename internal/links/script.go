package links

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// JavaScriptImports returns the module specifiers of import/export-from
// statements and require()/import() calls. Extension-less relative
// specifiers are also offered with ".js" appended.
func JavaScriptImports(ctx context.Context, content []byte) ([]string, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(javascript.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse javascript: %w", err)
	}
	defer tree.Close()

	specs := make([]string, 0)
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement", "export_statement":
			if source := node.ChildByFieldName("source"); source != nil {
				specs = append(specs, unquote(source.Content(content)))
			}
		case "call_expression":
			fn := node.ChildByFieldName("function")
			args := node.ChildByFieldName("arguments")
			if fn != nil && args != nil && (fn.Content(content) == "require" || fn.Type() == "import") {
				if args.NamedChildCount() > 0 {
					if first := args.NamedChild(0); first.Type() == "string" {
						specs = append(specs, unquote(first.Content(content)))
					}
				}
			}
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i))
		}
	}
	visit(tree.RootNode())

	out := make([]string, 0, len(specs))
	for _, spec := range specs {
		if spec == "" {
			continue
		}
		out = append(out, spec)
		if strings.HasPrefix(spec, ".") && path.Ext(spec) == "" {
			out = append(out, spec+".js")
		}
	}
	return out, nil
}

// PythonImports returns import targets as relative file paths: "a.b"
// becomes "a/b.py" and "..a" becomes "../a.py".
func PythonImports(ctx context.Context, content []byte) ([]string, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}
	defer tree.Close()

	modules := make([]string, 0)
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement":
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				switch child.Type() {
				case "dotted_name":
					modules = append(modules, child.Content(content))
				case "aliased_import":
					if name := child.ChildByFieldName("name"); name != nil {
						modules = append(modules, name.Content(content))
					}
				}
			}
			return
		case "import_from_statement":
			module := node.ChildByFieldName("module_name")
			if module == nil {
				return
			}
			name := module.Content(content)
			if strings.Trim(name, ".") != "" {
				modules = append(modules, name)
				return
			}
			// "from . import a, b" imports sibling modules.
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if child.StartByte() <= module.StartByte() {
					continue
				}
				switch child.Type() {
				case "dotted_name":
					modules = append(modules, name+child.Content(content))
				case "aliased_import":
					if imported := child.ChildByFieldName("name"); imported != nil {
						modules = append(modules, name+imported.Content(content))
					}
				}
			}
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i))
		}
	}
	visit(tree.RootNode())

	out := make([]string, 0, len(modules))
	for _, module := range modules {
		if rel := pythonModulePath(module); rel != "" {
			out = append(out, rel)
		}
	}
	return out, nil
}

func pythonModulePath(module string) string {
	module = strings.TrimSpace(module)
	rest := strings.TrimLeft(module, ".")
	if rest == "" {
		return ""
	}
	dots := len(module) - len(rest)

	prefix := ""
	switch {
	case dots == 1:
		prefix = "./"
	case dots > 1:
		prefix = strings.Repeat("../", dots-1)
	}
	return prefix + strings.ReplaceAll(rest, ".", "/") + ".py"
}

func unquote(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}
