package memory

import (
	"testing"

	"pdfcore/testutil"
)

func TestImportsAreDomainOrStdlib(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImport, "the memory store depends only on pkg/")
}
