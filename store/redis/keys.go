package redis

// Redis key naming conventions for requeue data.
// All keys are prefixed with "requeue:" to avoid collisions.

const keyPrefix = "requeue:"

// msgKey returns the key for a message entity: requeue:msg:{id}
func msgKey(id string) string { return keyPrefix + "msg:" + id }

// readyKey is the Sorted Set of pending message IDs scored by due time
// (unix milliseconds). A future score means the message is mid-backoff.
const readyKey = keyPrefix + "ready"

// dlqKey is the Sorted Set of dead-lettered message IDs scored by the
// time they entered the dead letter queue.
const dlqKey = keyPrefix + "dlq"

// msgIDsKey is the Set tracking all message IDs for enumeration.
const msgIDsKey = keyPrefix + "msg_ids"
