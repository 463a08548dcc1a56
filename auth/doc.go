// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifier generation and voter identity utilities.

# Poll IDs

Poll ids are 32 random bytes, hex encoded (64 characters):

	id, err := auth.GeneratePollID()
	err = auth.ValidatePollID(id) // ErrInvalidPollID for anything else

The socket endpoint validates ids before touching the actor registry, so
malformed ids never allocate an actor.

# Voter Identity

Deduplication keys on the connecting address, hashed with a server salt:

	identity, err := auth.VoterIdentity(middleware.GetClientIP(r, cfg.TrustedProxyHeader), salt)

Returns ErrMissingIP when no address could be determined. The identity is
used only for "ip" deduplication, never for authentication.

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
