package request

// AddFriendRequest is the request body for adding a friend.
// Query is a username or a profile id, with or without hyphens.
type AddFriendRequest struct {
	Query string `json:"query"`
}
