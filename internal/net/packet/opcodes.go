package packet

// Client → server opcodes.
const (
	C_HANDSHAKE      uint16 = 0xA301 // u32 user id handed over by the login server
	C_SELECT_FACTION uint16 = 0x0109 // u8 faction
	C_ENTER_WORLD    uint16 = 0x0104 // u32 character id, [21]name
	C_MOVE           uint16 = 0x0501 // u8 movement state, f32 x, f32 y, f32 z
	C_CHAT           uint16 = 0x1101 // text
	C_LOGOUT         uint16 = 0x0107
)

// Server → client opcodes.
const (
	S_FACTION_NOTIFY    uint16 = 0x0109
	S_CHARACTER_LIST    uint16 = 0x0101
	S_CHARACTER_DETAILS uint16 = 0x0105
	S_ENTITY_APPEAR     uint16 = 0x0201
	S_ENTITY_MOVE       uint16 = 0x0202
	S_ENTITY_DISAPPEAR  uint16 = 0x0203
	S_MOVEMENT_STATE    uint16 = 0x0204
	S_CHAT              uint16 = 0x1101
	S_SYSTEM_NOTICE     uint16 = 0x1106
)

// NameLength is the fixed width of character names on the wire.
const NameLength = 21
