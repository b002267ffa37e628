package engine

import (
	"errors"
	"fmt"
)

// Slot names the contract bucket a task occupies.
type Slot string

const (
	SlotAnchor    Slot = "anchor"
	SlotSideQuest Slot = "side quest"
)

// CapacityError indicates the contract slot a task was headed for is already full.
// The message is meant to be shown to the user as-is.
type CapacityError struct {
	Slot  Slot
	Limit int
}

func (e CapacityError) Error() string {
	if e.Slot == SlotAnchor {
		return fmt.Sprintf("You already have %d anchor tasks. Remove one to add another.", e.Limit)
	}
	return fmt.Sprintf("You already have %d side quests. Remove one to add another.", e.Limit)
}

// StateError is returned when an operation targets an entity whose status does not allow it.
type StateError struct {
	Entity string
	ID     string
	Status string
	Op     string
}

func (e StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s while %s", e.Op, e.Entity, e.ID, e.Status)
}

var (
	ErrTaskNotInContract = errors.New("task is not part of this contract")
	ErrTaskOwned         = errors.New("task already belongs to a contract")
	ErrNotDirective      = errors.New("only directive tasks can join a contract")
)
