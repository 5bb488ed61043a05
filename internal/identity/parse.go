package identity

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseID converts a 0x-prefixed 32-byte hex string into an id. Any other
// non-empty input is treated as a label and hashed with Named.
func ParseID(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Hash{}, fmt.Errorf("empty id")
	}
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		return Named(input), nil
	}

	data, err := hexutil.Decode(input)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid id: %s", input)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid id length: %s", input)
	}
	return common.BytesToHash(data), nil
}

// ParseIDs converts a list of ids, skipping blanks.
func ParseIDs(inputs []string) ([]common.Hash, error) {
	ids := make([]common.Hash, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		id, err := ParseID(input)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
