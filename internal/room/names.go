package room

import "fmt"

// DefaultNamePool is the fixed pool auto-naming draws from, in assignment
// order.
var DefaultNamePool = []string{
	"Biscuit",
	"Confetti",
	"Doodle",
	"Fizz",
	"Mango",
	"Noodle",
	"Pickle",
	"Waffle",
}

// NextAvailableName picks a display name no seat currently holds. Pool names
// are handed out in pool order, gap-filling freed names before extending the
// numeric fallback. Once the pool is exhausted the fallback is "Player k"
// with k starting at seatCount+1, advancing past any numbers already claimed
// as custom names.
func NextAvailableName(pool []string, seats []*Seat) string {
	used := make(map[string]bool, len(seats))
	for _, seat := range seats {
		used[seat.DisplayName] = true
	}

	for _, name := range pool {
		if !used[name] {
			return name
		}
	}

	for k := len(seats) + 1; ; k++ {
		name := fmt.Sprintf("Player %d", k)
		if !used[name] {
			return name
		}
	}
}
