package application

import (
	"fmt"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

type PurchaseResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	NewMoney *int         `json:"newMoney,omitempty"`
	Item     *domain.Item `json:"item,omitempty"`
}

type Purchase struct {
	Character domain.Character
	Ownership domain.CharacterItem
	Applied   domain.Effects
}

// ApplyPurchase charges the character for item and applies the item's first
// effect immediately. owned reports an existing acquired association.
func ApplyPurchase(character domain.Character, item domain.Item, owned bool, day int) (Purchase, error) {
	if owned {
		return Purchase{}, domain.ErrItemOwned
	}
	if item.UnlockDay > day {
		return Purchase{}, domain.ErrItemLocked
	}
	if character.Stats.Money < item.Price {
		return Purchase{}, domain.ErrInsufficientFunds
	}

	out := Purchase{Character: character}
	out.Character.Stats.Money -= item.Price
	if len(item.Effects) > 0 {
		first := item.Effects[0]
		out.Applied.Set(first.Stat, out.Character.Stats.Add(first.Stat, first.Value))
	}

	acquiredDay := day
	out.Ownership = domain.CharacterItem{
		CharacterID: character.ID,
		ItemID:      item.ID,
		Acquired:    true,
		AcquiredDay: &acquiredDay,
	}
	return out, nil
}

func purchaseMessage(item domain.Item) string {
	return fmt.Sprintf("Hai comprato %s!", item.Name)
}
