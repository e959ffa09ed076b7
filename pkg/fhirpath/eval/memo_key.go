package eval

import (
	"fmt"
	"strings"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/memo"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// envDigest builds a string identifying the environment a subtree ran
// under: the focus collection's identity (by pointer for ObjectValues,
// by rendered value for scalars, since two distinct scalar Values with
// the same content are interchangeable) and the loop index. Variables
// are left out: where/select/repeat bodies never rebind them, so they
// are constant across memoized calls within one Evaluate.
func envDigest(input types.Collection, index int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|", index)
	for _, v := range input {
		if obj, ok := v.(*types.ObjectValue); ok {
			fmt.Fprintf(&b, "%p,", obj)
			continue
		}
		b.WriteString(v.String())
		b.WriteByte(',')
	}
	return b.String()
}

// memoKeyFor builds the memoizer key for a where/select/repeat call
// node evaluated against input: the call subtree's structural
// fingerprint (covering the function name and its argument expression)
// combined with the environment it ran under.
func memoKeyFor(fingerprint uint64, input types.Collection) memo.Key {
	return memo.Key{Fingerprint: fingerprint, EnvDigest: envDigest(input, 0)}
}
