package core_test

import "github.com/ghostweasellabs/meridian-runtime-examples/observability"

func testHooks() observability.Hooks {
	return observability.NewNoOpHooks()
}
