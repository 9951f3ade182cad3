package redis

import "fmt"

// defaultKeyPrefix is used when the config leaves KeyPrefix empty
const defaultKeyPrefix = "friendapi"

// friendsKey returns the Redis key holding the encoded friend list
func friendsKey(prefix string) string {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return fmt.Sprintf("%s:friends", prefix)
}
