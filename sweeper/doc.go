// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package sweeper deletes polls that outlived the retention window. It pages
// through the metadata index, discards each expired poll through the actor
// registry and then removes the index row.
package sweeper
