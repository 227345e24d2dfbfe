// Package remindstore provides type-safe Go definitions and Redis schema patterns
// for the Nudge reminder store.
//
// # Overview
//
// The store is the single shared state system for Nudge: command handlers and
// the due-reminder scheduler never share in-process state, they only read and
// write documents through this package. It partitions reminders into a
// future-set (outstanding) and a past-set (delivered), and keeps one aggregate
// profile per author.
//
// # Core Concepts
//
// Reminders are the unit of state. A reminder lives in exactly one of the two
// sets at any time: it is inserted into the future-set on creation and copied
// into the past-set (with done=true) exactly once, at or after its due
// instant, by the scheduler. The reverse transition never happens.
//
// UserProfiles track, per author, the ordered ids of outstanding reminders,
// the ordered ids of every reminder ever created (consulted by the throttle
// policy by position, not value), and denormalized counters for both sets.
//
// # Consistency Contract
//
// Each operation in this package is atomic on its own: multi-key writes that
// belong to one entity (a reminder hash plus its schedule index entry, or a
// profile's counters plus its id lists) are issued inside a single MULTI/EXEC
// transaction. No operation spans a reminder AND a profile - the caller owns
// the sequencing and the partial-failure policy for the
// deliver/archive/profile-update/delete chain.
//
// # Multi-Instance Support
//
// All Redis keys and Pub/Sub channels are namespaced, so several Nudge
// deployments can share one Redis server. The namespace and the three
// collection names (future, past, profiles) come from configuration.
//
// # Redis Schema
//
// Reminders:       nudge:{ns}:{future|past}:{reminder_id}   (hash)
// Schedule index:  nudge:{ns}:schedule                      (zset, score = due unix ms)
// Profiles:        nudge:{ns}:{profiles}:{author_id}        (hash: counters)
//	                nudge:{ns}:{profiles}:{author_id}:future (list of reminder ids)
//	                nudge:{ns}:{profiles}:{author_id}:all    (list of reminder ids)
//
// Pub/Sub channels: nudge:{ns}:inbound and nudge:{ns}:outbound:{channel}.
package remindstore
