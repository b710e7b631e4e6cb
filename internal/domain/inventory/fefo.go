package inventory

import (
	"sort"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// SortFEFO ordena los lotes First-Expired-First-Out: vencimiento ascendente, lotes sin vencimiento
// al final y, a igual vencimiento, ID ascendente (los IDs son UUIDv7, ordenados por inserción).
func SortFEFO(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return fefoLess(lots[i], lots[j])
	})
}

func fefoLess(a, b *entity.Lot) bool {
	switch {
	case a.ExpiryDate == nil && b.ExpiryDate == nil:
		return a.ID < b.ID
	case a.ExpiryDate == nil:
		return false
	case b.ExpiryDate == nil:
		return true
	}
	ea, eb := entity.DateOf(*a.ExpiryDate), entity.DateOf(*b.ExpiryDate)
	if !ea.Equal(eb) {
		return ea.Before(eb)
	}
	return a.ID < b.ID
}

// Available suma la cantidad disponible de los lotes.
func Available(lots []*entity.Lot) int {
	total := 0
	for _, l := range lots {
		total += l.Quantity
	}
	return total
}
