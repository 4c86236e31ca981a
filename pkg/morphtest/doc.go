// Package morphtest provides testing helpers for morph applications.
//
// A Harness runs an application against an in-memory document, so tests
// can fire events at rendered elements and assert on the result without a
// server or a browser.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := morphtest.New(t, Counter())
//	    h.Click(h.Find("button.inc"))
//	    morphtest.ExpectContains(t, h.HTML(), "<span>1</span>")
//	}
//
// # Selectors
//
// Find and All accept a tag ("li"), a class (".done") or both
// ("button.up"), matched in document order under the mount element.
//
// # Restarts
//
// SimulateRestart takes a session snapshot of the model, decodes it and
// starts the application again from it, the way a resumed session does.
// It fails the test when the model does not survive the round trip.
package morphtest
