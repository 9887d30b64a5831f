package domain

// transitions is the lead adjacency table. Anything not listed is illegal.
var transitions = map[Status][]Status{
	StatusNew:         {StatusNegotiation, StatusCancelled},
	StatusNegotiation: {StatusInspection, StatusCancelled},
	StatusInspection:  {StatusInventory, StatusConsignment, StatusCancelled},
	StatusInventory:   {StatusSale},
	StatusConsignment: {StatusSale},
	StatusSale:        {StatusSold},
	StatusSold:        nil,
	StatusCancelled:   nil,
}

// IsValidTransition reports whether the adjacency table has an edge from -> to.
func IsValidTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable in one step from s.
func NextStatuses(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// EntersStock reports whether the edge moves an inspected vehicle into stock.
func EntersStock(from, to Status) bool {
	return from == StatusInspection && (to == StatusInventory || to == StatusConsignment)
}

// EntersSale reports whether the edge lists a stocked vehicle for sale.
func EntersSale(from, to Status) bool {
	return (from == StatusInventory || from == StatusConsignment) && to == StatusSale
}
