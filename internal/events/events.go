// Package events carries change notifications for an owner's collections so
// that live views can replace their snapshot whenever something is written.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Collection names a family of records owned by a user
type Collection string

const (
	Wallets      Collection = "wallets"
	Transactions Collection = "transactions"
	Categories   Collection = "categories"
	Users        Collection = "users"
)

// Action is the kind of write that happened
type Action string

const (
	Created Action = "created"
	Deleted Action = "deleted"
	Updated Action = "updated"
	Renamed Action = "renamed"
)

// Change describes one committed write
type Change struct {
	Owner      string     `json:"owner"`
	Collection Collection `json:"collection"`
	Action     Action     `json:"action"`
	ID         string     `json:"id,omitempty"`
	At         time.Time  `json:"at"`
}

// NewChange stamps a change with the current time
func NewChange(owner string, c Collection, a Action, id string) Change {
	return Change{Owner: owner, Collection: c, Action: a, ID: id, At: time.Now().UTC()}
}

func (c Change) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

func ChangeFromJSON(data []byte) (Change, error) {
	var c Change
	err := json.Unmarshal(data, &c)
	return c, err
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

type Subscriber interface {
	// Subscribe delivers the changes of one owner until ctx is done or the
	// returned cancel function is called.
	Subscribe(ctx context.Context, owner string) (<-chan Change, func(), error)
}

type Bus interface {
	Publisher
	Subscriber
}

// Discard is a Publisher that drops everything
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Change) error { return nil }
