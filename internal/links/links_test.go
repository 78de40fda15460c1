package links

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	text := `<html>
<a href="sub/page2.html">next</a>
<A HREF='../up.html'>up</A>
<img src="img/logo.png" srcset="img/a.png 1x, img/b.png 2x">
<object data="diagram.svg"></object>
<div data-src="lazy.html"></div>
<form action="/submit.php"></form>
<a href="sub/page2.html">duplicate</a>
<a href="">empty</a>
<a name="anchor">no reference</a>
</html>`

	assert.Equal(t, []string{
		"sub/page2.html",
		"../up.html",
		"img/logo.png",
		"img/a.png",
		"img/b.png",
		"diagram.svg",
		"lazy.html",
		"/submit.php",
	}, Extract(text))

	assert.Nil(t, Extract("plain text without references"))
}

func TestClean(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "sub/page2.html", want: "sub/page2.html", ok: true},
		{in: "/Notebook/docs/page.html?x=1#top", want: "docs/page.html", ok: true},
		{in: "page.html#section", want: "page.html", ok: true},
		{in: "https://example.com/a.html", ok: false},
		{in: "//cdn.example.com/x.js", ok: false},
		{in: "mailto:someone@example.com", ok: false},
		{in: "javascript:void(0)", ok: false},
		{in: "#top", ok: false},
		{in: "/", ok: false},
	}
	for _, tc := range cases {
		got, ok := Clean(tc.in, "Notebook/")
		assert.Equal(t, tc.ok, ok, "Clean(%q)", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "Clean(%q)", tc.in)
		}
	}
}

func TestJavaScriptImports(t *testing.T) {
	src := `import util from "./util";
import { a } from './lib/a.js';
export { b } from "./b.mjs";
const c = require("../c");
const lazy = import("./lazy.js");
const other = load("./not-an-import.js");
`
	got, err := JavaScriptImports(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"./util", "./util.js",
		"./lib/a.js",
		"./b.mjs",
		"../c", "../c.js",
		"./lazy.js",
	}, got)
}

func TestPythonImports(t *testing.T) {
	src := `import os.path
import tools.helpers as h
from . import sibling
from ..pkg import thing
from .local import x
`
	got, err := PythonImports(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"os/path.py",
		"tools/helpers.py",
		"./sibling.py",
		"../pkg.py",
		"./local.py",
	}, got)
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	refs, err := r.Extract(ctx, "docs/page.html", `<a href="x.html">x</a>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.html"}, refs)

	refs, err = r.Extract(ctx, "lib/app.js", `import "./dep.js"; const s = '<a href="page.html">';`)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"page.html", "./dep.js"}, refs)

	called := false
	r.Register(".md", func(ctx context.Context, path, text string) ([]string, error) {
		called = true
		return []string{"custom.html"}, nil
	})
	refs, err = r.Extract(ctx, "README.MD", "")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"custom.html"}, refs)
}
