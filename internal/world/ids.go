package world

import "sync/atomic"

// Object id counters for server-spawned entities. Characters use their
// persistent id. Ranges are disjoint so client-side ids never collide.
var (
	npcIDCounter        atomic.Uint32
	mobIDCounter        atomic.Uint32
	groundItemIDCounter atomic.Uint32
)

func init() {
	npcIDCounter.Store(200_000_000)
	mobIDCounter.Store(300_000_000)
	groundItemIDCounter.Store(700_000_000)
}

// NextNpcID returns a unique object id for an npc instance.
func NextNpcID() EntityID { return EntityID(npcIDCounter.Add(1)) }

// NextMobID returns a unique object id for a mob instance.
func NextMobID() EntityID { return EntityID(mobIDCounter.Add(1)) }

// NextGroundItemID returns a unique object id for a ground item.
func NextGroundItemID() EntityID { return EntityID(groundItemIDCounter.Add(1)) }
