// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package actor runs one goroutine per live poll.

Each Actor owns its poll's definition, vote ledger and attached sessions.
Requests arrive on a mailbox and are handled one at a time, so no locks
guard poll state and every vote is persisted before any session sees the
updated counts.

The Registry is the entry point:

	reg := actor.NewRegistry(actor.Options{Store: db.NewStateStore(conn)})
	defer reg.Close()

	id, err := reg.Create(ctx, pollID, def)
	err = reg.Attach(ctx, pollID, session) // session receives FullState
	err = reg.Submit(ctx, pollID, voter, []int{0})
	reg.Detach(pollID, session.ID())
	err = reg.Discard(ctx, pollID) // sessions receive {"error":"Poll expired"}

An actor that is not in memory reloads its poll from the Store on first use,
so polls survive restarts. Storage work runs under the actor's own timeout;
a caller that gives up does not cancel a request the actor already accepted.
*/
package actor
