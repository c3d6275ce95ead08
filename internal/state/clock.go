package state

import (
	"github.com/segmentio/ksuid"
)

// NewID returns an element id that is unique across clients: a time-ordered
// ksuid combined with the author's user id.
func NewID(author string) string {
	id := ksuid.New().String()
	if author == "" {
		return id
	}
	return id + "-" + author
}
