/*
Package consensus verifies windows of solana consensus activity.

A Window holds, for a contiguous range of slots, the committed bank state
of every slot, merkle proofs of accounts into the slots' account-delta
roots, and the signed votes and tower syncs validators sent for those
slots. Given the trusted bank hash of the slot just before the window, the
anchor, Verify decides whether the window is internally consistent and
authentic:

	anchor <- bank(100) <- bank(101) <- bank(102)
	              |            |            |
	          delta root   delta root   delta root
	              |
	       deposit account

Every bank hash must chain back to the anchor and be derived from its own
fields, every proof must fold to its slot's delta root, every vote and
tower sync signature must verify, every slot must be present exactly once,
and at least one proven account must hold a bridge deposit message.

The outcome is a Verdict, either valid or carrying the first Violation
found. Violations are values, never panics; the only error Verify returns
is a cancelled context.

Proof and signature checks are spread over a pool of goroutines, but the
reported violation is always the one with the lowest index so verdicts do
not depend on scheduling.
*/
package consensus
