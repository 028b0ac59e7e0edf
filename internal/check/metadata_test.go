package check

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fennlang/fenn/internal/ast"
)

func TestExtractMetadataFromBindings(t *testing.T) {
	f := newFixture(t)
	binding := &ast.ValueBinding{
		Comment: "The identity function.",
		Name:    &ast.PatIdent{Name: f.sym("id")},
		Args:    []*ast.Ident{f.ident("x")},
		Expr:    f.ident("x"),
	}
	expr := f.letOne(binding, &ast.App{Func: f.ident("id"), Args: []ast.Expr{f.intLit(2)}})
	f.check(t, expr)

	md := ExtractMetadata(expr)
	entry, ok := md["id"]
	require.True(t, ok)
	assert.Equal(t, "The identity function.", entry.Comment)
	assert.Equal(t, []string{"x"}, entry.Args)
	assert.Equal(t, "forall a . a -> a", entry.Type)
}

func TestExtractMetadataFromTypeBindings(t *testing.T) {
	f := newFixture(t)
	expr := &ast.TypeBindings{
		Bindings: []*ast.TypeBinding{{
			Comment: "An integer wrapper.",
			Name:    f.sym("Wrapped"),
			Body:    f.cache.Int,
		}},
		Body: f.intLit(1),
	}
	f.check(t, expr)

	md := ExtractMetadata(expr)
	entry, ok := md["Wrapped"]
	require.True(t, ok)
	assert.Equal(t, "An integer wrapper.", entry.Comment)
}

func TestMetadataYAMLRoundTrip(t *testing.T) {
	md := map[string]Metadata{
		"id": {Comment: "identity", Args: []string{"x"}, Type: "forall a . a -> a"},
	}
	out, err := EncodeMetadata(md)
	require.NoError(t, err)

	var decoded map[string]Metadata
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	if diff := cmp.Diff(md, decoded); diff != "" {
		t.Errorf("metadata round trip mismatch (-want +got):\n%s", diff)
	}
}
