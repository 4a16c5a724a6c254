// Package query is the client-side cache between views and the remote
// content service. Each query key has one cache entry that moves through
// idle, loading, success and error; a stale flag and a generation counter
// track invalidation independently of the status.
package query

// Key identifies a cached result set.
type Key string

// PostsList is the key of the full post list.
const PostsList Key = "posts:list"

const postDetailPrefix = "posts:detail:"

// PostDetail is the key of a single post.
func PostDetail(id string) Key {
	return Key(postDetailPrefix + id)
}

func (k Key) String() string { return string(k) }
