// Package engine owns the persistent execution namespace of one scope.
//
// A Manager executes cell code against a single live namespace, so every cell
// of the scope sees the bindings earlier cells left behind. Run never fails:
// errors, including panics inside builtins, come back inside the Result. Work
// done by the statements that ran before the failure stays in the namespace.
//
// After Initialize the namespace holds the baseline bindings:
//
//	doc              the document accessor
//	sheet            the sheet accessor
//	CURRENT_CELL     null
//	CURRENT_CELL_ID  ""
//	LAST_VALUE       null
//	CALL_ARGS        null
//
// Reset goes back to exactly that set. ResetTo installs any other snapshot.
package engine
