package warehouse

import (
	"fmt"

	"github.com/google/uuid"
)

// Truck carries blocks between the warehouse and the outside world.
//
// A truck that arrives empty wants to be loaded; a truck that arrives with
// cargo wants to be unloaded. The warehouse worker mutates Cargo in place and
// hands the truck back to whoever submitted it.
//
// Invariants:
// - Capacity is fixed and positive
// - len(Cargo) never exceeds Capacity
type Truck struct {
	ID       string
	Name     string
	Capacity int
	Cargo    []Block
}

// NewTruck creates an empty truck with a fresh identity
func NewTruck(name string, capacity int) (*Truck, error) {
	t := &Truck{
		ID:       uuid.NewString(),
		Name:     name,
		Capacity: capacity,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the truck can be interpreted as a pure load or unload request
func (t *Truck) Validate() error {
	if t == nil {
		return &ErrInvalidTruck{Reason: "truck cannot be nil"}
	}
	if t.Name == "" {
		return &ErrInvalidTruck{TruckName: t.Name, Reason: "name cannot be empty"}
	}
	if t.Capacity <= 0 {
		return &ErrInvalidTruck{TruckName: t.Name, Reason: fmt.Sprintf("capacity must be positive, got %d", t.Capacity)}
	}
	if len(t.Cargo) > t.Capacity {
		return &ErrInvalidTruck{
			TruckName: t.Name,
			Reason:    fmt.Sprintf("cargo (%d) exceeds capacity (%d)", len(t.Cargo), t.Capacity),
		}
	}
	return nil
}

// IsEmpty reports whether the truck carries no cargo
func (t *Truck) IsEmpty() bool {
	return len(t.Cargo) == 0
}

// FreeCapacity returns how many more blocks fit on the truck
func (t *Truck) FreeCapacity() int {
	return t.Capacity - len(t.Cargo)
}

// Load puts blocks onto the truck.
func (t *Truck) Load(blocks []Block) error {
	if len(blocks) > t.FreeCapacity() {
		return fmt.Errorf("load truck: truck %s is at full capacity (capacity=%d, loading=%d, held=%d)",
			t.Name, t.Capacity, len(blocks), len(t.Cargo))
	}
	t.Cargo = append(t.Cargo, blocks...)
	return nil
}

// Clear unloads all blocks from the truck and returns them
func (t *Truck) Clear() []Block {
	cargo := t.Cargo
	t.Cargo = nil
	return cargo
}

func (t *Truck) String() string {
	return fmt.Sprintf("Truck[%s, cargo=%d/%d]", t.Name, len(t.Cargo), t.Capacity)
}
