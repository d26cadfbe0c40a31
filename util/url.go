package util

import "fmt"

var explorers = map[int64]string{
	1:     "https://etherscan.io/tx/",
	56:    "https://bscscan.com/tx/",
	137:   "https://polygonscan.com/tx/",
	8453:  "https://basescan.org/tx/",
	42161: "https://arbiscan.io/tx/",
	10:    "https://optimistic.etherscan.io/tx/",
}

// TxExplorerURL returns the block explorer link for a transaction hash, or
// empty when the chain has no known explorer.
func TxExplorerURL(chainID int64, hash string) string {
	base, ok := explorers[chainID]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s%s", base, hash)
}
