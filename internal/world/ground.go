package world

import "github.com/eden/gameserver/internal/schedule"

// GroundItem is an item stack lying on a map.
type GroundItem struct {
	EntityBase

	itemID  uint32
	count   uint16
	owner   EntityID // character that dropped or spawned it, 0 for none
	despawn *schedule.Task
}

func NewGroundItem(id EntityID, itemID uint32, count uint16, owner EntityID, pos Position) *GroundItem {
	if count == 0 {
		count = 1
	}
	return &GroundItem{
		EntityBase: newEntityBase(TypeGroundItem, id, pos),
		itemID:     itemID,
		count:      count,
		owner:      owner,
	}
}

func (g *GroundItem) ItemID() uint32  { return g.itemID }
func (g *GroundItem) Count() uint16   { return g.count }
func (g *GroundItem) Owner() EntityID { return g.owner }

// ItemType is the item category encoded in the thousands of the item id.
func (g *GroundItem) ItemType() uint32 { return g.itemID / 1000 }

// ItemTypeID is the index of the item within its category.
func (g *GroundItem) ItemTypeID() uint32 { return g.itemID - g.ItemType()*1000 }

// SetDespawn attaches the task that removes the item when it expires. The
// task is cancelled if the item is unregistered earlier.
func (g *GroundItem) SetDespawn(t *schedule.Task) { g.despawn = t }
