package types

// Balances maps a holder to its transferable balance per token. The
// graph builder fills it with each sender's own-token balance so the
// flow engine can bound a sender's total outflow in a token by what
// the sender actually holds, independent of the per-receiver trust
// limits.
type Balances map[Address]map[Address]U256

// Lookup returns the holder's balance in token and whether one is
// recorded.
func (b Balances) Lookup(holder, token Address) (U256, bool) {
	balance, ok := b[holder][token]
	return balance, ok
}

// Set records the holder's balance in token.
func (b Balances) Set(holder, token Address, balance U256) {
	row := b[holder]
	if row == nil {
		row = make(map[Address]U256)
		b[holder] = row
	}
	row[token] = balance
}
