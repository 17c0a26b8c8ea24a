package generator

import (
	"bytes"
	"encoding/binary"
	"net"

	"github.com/bwmarrin/snowflake"
)

// IDbyIP folds an IPv4 address into a node number.
func IDbyIP(ip string) uint32 {
	var id uint32
	v4 := net.ParseIP(ip).To4()
	if v4 == nil {
		return 0
	}
	binary.Read(bytes.NewBuffer(v4), binary.BigEndian, &id)
	return id
}

// RunIDs issues snowflake ids for crawl runs.
type RunIDs struct {
	node *snowflake.Node
}

// NewRunIDs creates a generator for node. Nodes outside the snowflake
// range are folded into it.
func NewRunIDs(node int64) (*RunIDs, error) {
	n, err := snowflake.NewNode(node % (1 << snowflake.NodeBits))
	if err != nil {
		return nil, err
	}

	return &RunIDs{node: n}, nil
}

func (r *RunIDs) Next() string {
	return r.node.Generate().String()
}
