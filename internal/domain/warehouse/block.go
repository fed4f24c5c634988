package warehouse

import (
	"fmt"

	"github.com/google/uuid"
)

// Block is an opaque unit of cargo.
// A block is owned by exactly one holder at a time: warehouse storage or a truck's cargo.
type Block struct {
	ID     string
	Serial int
}

// NewBlock creates a block with a fresh identity
func NewBlock(serial int) Block {
	return Block{
		ID:     uuid.NewString(),
		Serial: serial,
	}
}

// NewBlocks produces n blocks numbered 0..n-1, used to seed storage
func NewBlocks(n int) []Block {
	blocks := make([]Block, 0, n)
	for i := 0; i < n; i++ {
		blocks = append(blocks, NewBlock(i))
	}
	return blocks
}

func (b Block) String() string {
	return fmt.Sprintf("Block[%d %s]", b.Serial, b.ID)
}
