package redis

const (
	// KeyPrefixRender is the prefix for rendered-HTML cache keys
	KeyPrefixRender = "blogctl:render:"
)

// RenderKey returns the Redis key for a post's rendered HTML
func RenderKey(postID string) string {
	return KeyPrefixRender + postID
}
