package templates

import (
	"embed"
	"io/fs"
)

// BuiltinSource is the Root.Path of the bundled default templates.
const BuiltinSource = "builtin"

//go:embed builtin/*.ipynb
var builtinFS embed.FS

// BuiltinRoot returns the root holding the default templates bundled with the
// binary.
func BuiltinRoot() Root {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return FSRoot(BuiltinSource, sub)
}
