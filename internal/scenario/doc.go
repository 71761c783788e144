// Package scenario models the FIX acceptance scenario corpora and
// discovers the scenario files present in them.
//
// # Layout
//
// Scenarios live in two logically distinct corpora:
//
//   - reference: the broad external definition set (QuickFIX acceptance
//     definitions), only part of which matches the engine's scope
//   - custom: definitions hand-edited for this engine's semantics
//
// Each corpus is partitioned by protocol version directory:
//
//	definitions/
//	  quickfix/fix42/1a_ValidLogonWithCorrectMsgSeqNum.def
//	  custom/fix42/2b_MsgSeqNumTooHigh.def
//
// A Root names one concrete (corpus, version, directory) triple. The
// identifier of a scenario is its file name; the contents are never read
// here. Identifiers are compared by exact byte equality.
//
// # Determinism
//
// Discovery returns identifiers sorted by byte value so that the same
// directory contents always produce the same enumeration, regardless of
// the order the operating system reports entries in.
package scenario
