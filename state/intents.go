package state

import (
	"fmt"

	"github.com/pthm-cable/meadow/components"
)

// IntentKind is a discrete action queued by a collaborator.
type IntentKind uint8

const (
	IntentPlant IntentKind = iota
	IntentDelete
	IntentReplace
	IntentPurchaseUpgrade
	IntentActivateAbility
)

func (k IntentKind) String() string {
	switch k {
	case IntentPlant:
		return "plant"
	case IntentDelete:
		return "delete"
	case IntentReplace:
		return "replace"
	case IntentPurchaseUpgrade:
		return "purchase_upgrade"
	case IntentActivateAbility:
		return "activate_ability"
	}
	return fmt.Sprintf("intent(%d)", k)
}

// Intent is one queued action. Only the fields relevant to Kind are read.
type Intent struct {
	Kind     IntentKind
	X, Y     int
	CropID   string
	Effect   components.Effect
	Duration float64
	// Source names who queued the intent, for logs.
	Source string
}

// Plant queues planting crop id on an empty or remainder cell.
func Plant(x, y int, id string) Intent {
	return Intent{Kind: IntentPlant, X: x, Y: y, CropID: id}
}

// Delete queues removing the crop at (x, y).
func Delete(x, y int) Intent {
	return Intent{Kind: IntentDelete, X: x, Y: y}
}

// Replace queues swapping the crop at (x, y) for id.
func Replace(x, y int, id string) Intent {
	return Intent{Kind: IntentReplace, X: x, Y: y, CropID: id}
}

// PurchaseUpgrade queues buying one basic upgrade of crop id.
func PurchaseUpgrade(id string) Intent {
	return Intent{Kind: IntentPurchaseUpgrade, CropID: id}
}

// ActivateAbility queues starting a temporary ability.
func ActivateAbility(eff components.Effect, duration float64) Intent {
	return Intent{Kind: IntentActivateAbility, Effect: eff, Duration: duration}
}

// Intents is the queue through which collaborators change the state. It is
// drained at the start of each tick.
type Intents struct {
	queue []Intent
}

// Queue appends an intent.
func (q *Intents) Queue(in Intent) {
	q.queue = append(q.queue, in)
}

// Drain returns the queued intents in order and empties the queue.
func (q *Intents) Drain() []Intent {
	out := q.queue
	q.queue = nil
	return out
}

// Len returns the number of queued intents.
func (q *Intents) Len() int {
	return len(q.queue)
}
