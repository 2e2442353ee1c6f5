package relationship

import "github.com/kailas-cloud/vecmatch/internal/db"

// transitionScript moves ARGV[1] into KEYS[1] and out of KEYS[2], KEYS[3].
// Returns 1 if the member was newly added to KEYS[1].
var transitionScript = db.NewScript("relationship_transition", `
redis.call('SREM', KEYS[2], ARGV[1])
redis.call('SREM', KEYS[3], ARGV[1])
return redis.call('SADD', KEYS[1], ARGV[1])
`)

// pendingBulkScript adds every ARGV to KEYS[1] (pending) unless it is
// already in KEYS[2] (liked) or KEYS[3] (disliked). Returns the number added.
var pendingBulkScript = db.NewScript("relationship_pending_bulk", `
local added = 0
for _, id in ipairs(ARGV) do
  if redis.call('SISMEMBER', KEYS[2], id) == 0 and redis.call('SISMEMBER', KEYS[3], id) == 0 then
    added = added + redis.call('SADD', KEYS[1], id)
  end
end
return added
`)
