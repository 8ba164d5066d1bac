package systems

import (
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/state"
)

// Behavior is a crop category's role in the precompute. Stages look up the
// behavior once per cell and dispatch on the capability interfaces below.
type Behavior interface {
	Category() components.Category
}

// SeedRole says how a producer takes part in seed distribution.
type SeedRole uint8

const (
	SeedNone SeedRole = iota
	SeedSupplier
	SeedConsumer
)

// Producer crops have a production vector that runs through the full chain.
type Producer interface {
	Behavior
	// CanProduce reports whether the crop yields in its placement.
	CanProduce(pc *components.PreCell) bool
	SeedRole() SeedRole
}

// BoostEmitter crops radiate a boost to some neighbor categories and a
// divisive malus to others.
type BoostEmitter interface {
	Behavior
	Boosts(target components.Category) bool
	Maluses(target components.Category) bool
}

// Amplifier crops add to the boost of adjacent emitters.
type Amplifier interface {
	Behavior
	Amplifies(target components.Category) bool
}

// Copier crops duplicate the resolved output of adjacent producers.
type Copier interface {
	Behavior
	Copies(target Behavior) bool
}

// ChainBooster crops take their boost from a fixed chain of neighbor
// categories, only while a challenge enables them.
type ChainBooster interface {
	Behavior
	ChainActive(st *state.State) bool
	// Links returns the category fed by the booster and the category each
	// fed neighbor must itself touch to count.
	Links() (fed, via components.Category)
}

type berry struct{}

func (berry) Category() components.Category { return components.CategoryBerry }
func (berry) CanProduce(*components.PreCell) bool { return true }
func (berry) SeedRole() SeedRole { return SeedSupplier }

type mushroom struct{}

func (mushroom) Category() components.Category { return components.CategoryMushroom }
func (mushroom) CanProduce(*components.PreCell) bool { return true }
func (mushroom) SeedRole() SeedRole { return SeedConsumer }

type mistletoe struct{}

func (mistletoe) Category() components.Category { return components.CategoryMistletoe }
func (mistletoe) SeedRole() SeedRole { return SeedNone }

// CanProduce is true only next to the tree.
func (mistletoe) CanProduce(pc *components.PreCell) bool { return pc.TreeAdjacent }

type flower struct{}

func (flower) Category() components.Category { return components.CategoryFlower }
func (flower) Boosts(t components.Category) bool {
	return t == components.CategoryBerry
}
func (flower) Maluses(components.Category) bool { return false }

type nettle struct{}

func (nettle) Category() components.Category { return components.CategoryNettle }
func (nettle) Boosts(t components.Category) bool {
	return t == components.CategoryMushroom
}
func (nettle) Maluses(t components.Category) bool {
	return t == components.CategoryBerry || t == components.CategoryFlower
}

type bee struct{}

func (bee) Category() components.Category { return components.CategoryBee }
func (bee) Amplifies(t components.Category) bool {
	return t == components.CategoryFlower
}

type watercress struct{}

func (watercress) Category() components.Category { return components.CategoryWatercress }

// Copies accepts any producer; copiers never copy each other.
func (watercress) Copies(target Behavior) bool {
	_, ok := target.(Producer)
	return ok
}

type hive struct{}

func (hive) Category() components.Category { return components.CategoryHive }
func (hive) ChainActive(st *state.State) bool {
	return st.Challenge.Hive
}
func (hive) Links() (fed, via components.Category) {
	return components.CategoryBee, components.CategoryFlower
}

var behaviors = [components.NumCategories]Behavior{
	components.CategoryBerry:      berry{},
	components.CategoryMushroom:   mushroom{},
	components.CategoryFlower:     flower{},
	components.CategoryNettle:     nettle{},
	components.CategoryBee:        bee{},
	components.CategoryWatercress: watercress{},
	components.CategoryMistletoe:  mistletoe{},
	components.CategoryHive:       hive{},
}

// BehaviorOf returns the behavior of a category.
func BehaviorOf(cat components.Category) Behavior {
	if cat >= components.NumCategories {
		return nil
	}
	return behaviors[cat]
}
