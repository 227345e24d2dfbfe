package remindstore

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced so multiple Nudge
// deployments can coexist on a single Redis server. The three collection
// names default to "future", "past" and "profiles" but are configurable,
// matching the environment-level collection-name settings.
//
// Key pattern: nudge:{namespace}:{collection}:{id}

// Keyspace binds a namespace and the three collection names into the
// concrete key layout used by a Client.
type Keyspace struct {
	Namespace string
	Future    string
	Past      string
	Profiles  string
}

// DefaultKeyspace returns the standard collection names for a namespace.
func DefaultKeyspace(namespace string) Keyspace {
	return Keyspace{
		Namespace: namespace,
		Future:    "future",
		Past:      "past",
		Profiles:  "profiles",
	}
}

// FutureKey returns the Redis key for an outstanding reminder.
// Pattern: nudge:{ns}:{future}:{reminder_id}
func (k Keyspace) FutureKey(reminderID string) string {
	return fmt.Sprintf("nudge:%s:%s:%s", k.Namespace, k.Future, reminderID)
}

// PastKey returns the Redis key for an archived reminder.
// Pattern: nudge:{ns}:{past}:{reminder_id}
func (k Keyspace) PastKey(reminderID string) string {
	return fmt.Sprintf("nudge:%s:%s:%s", k.Namespace, k.Past, reminderID)
}

// ScheduleKey returns the Redis key for the due-time ZSET index over the
// future-set. Members are reminder ids, scores are due instants in unix
// milliseconds.
// Pattern: nudge:{ns}:schedule
func (k Keyspace) ScheduleKey() string {
	return fmt.Sprintf("nudge:%s:schedule", k.Namespace)
}

// ProfileKey returns the Redis key for an author's profile counters hash.
// Pattern: nudge:{ns}:{profiles}:{author_id}
func (k Keyspace) ProfileKey(authorID string) string {
	return fmt.Sprintf("nudge:%s:%s:%s", k.Namespace, k.Profiles, authorID)
}

// ProfileFutureKey returns the Redis key for an author's outstanding
// reminder id list.
// Pattern: nudge:{ns}:{profiles}:{author_id}:future
func (k Keyspace) ProfileFutureKey(authorID string) string {
	return fmt.Sprintf("nudge:%s:%s:%s:future", k.Namespace, k.Profiles, authorID)
}

// ProfileAllKey returns the Redis key for an author's full reminder id
// history list.
// Pattern: nudge:{ns}:{profiles}:{author_id}:all
func (k Keyspace) ProfileAllKey(authorID string) string {
	return fmt.Sprintf("nudge:%s:%s:%s:all", k.Namespace, k.Profiles, authorID)
}

// InboundChannel returns the Pub/Sub channel the gateway consumes chat
// commands from.
// Pattern: nudge:{ns}:inbound
func (k Keyspace) InboundChannel() string {
	return fmt.Sprintf("nudge:%s:inbound", k.Namespace)
}

// OutboundChannel returns the Pub/Sub channel notifications for a chat
// channel are published to.
// Pattern: nudge:{ns}:outbound:{channel_id}
func (k Keyspace) OutboundChannel(channelID string) string {
	return fmt.Sprintf("nudge:%s:outbound:%s", k.Namespace, channelID)
}
