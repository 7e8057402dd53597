package domain

import (
	"testing"

	"pdfcore/testutil"
)

func TestDomainDoesNotReachIntoInternal(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InternalImport, "pkg/domain is shared by every layer")
}
