package cassandra

import "github.com/dreamware/kronos/internal/ktime"

// shardOf maps an event id to one of the stream's fixed shards. It is
// grounded on ktime.ShardKey — the id's own embedded UUIDv1 timestamp — not a
// hash of the id bytes, so the mapping is stable and documented, never an
// implementation detail that can silently change (§4.4).
func shardOf(id ktime.EventId, shards int) int {
	k := ktime.ShardKey(id)
	s := k % int64(shards)
	if s < 0 {
		s += int64(shards)
	}
	return int(s)
}
