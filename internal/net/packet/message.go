package packet

// Message is a typed outbound packet. Encode writes the body only; the
// session prefixes length and opcode.
type Message interface {
	Opcode() uint16
	Encode(w *Writer)
}

// Marshal returns the opcode followed by the encoded body.
func Marshal(m Message) []byte {
	w := NewWriter()
	w.WriteU16(m.Opcode())
	m.Encode(w)
	return w.Bytes()
}

// AccountFactionNotify tells the client which faction the account chose on
// this world. Faction 2 (neither) prompts the faction selection screen.
type AccountFactionNotify struct {
	Faction uint8
}

func (AccountFactionNotify) Opcode() uint16 { return S_FACTION_NOTIFY }
func (m AccountFactionNotify) Encode(w *Writer) {
	w.WriteU8(m.Faction)
}

// CharacterListEntry is one character selection slot. Empty slots are sent
// truncated to the slot byte.
type CharacterListEntry struct {
	Slot        uint8
	CharacterID uint32
	Name        string
}

func (CharacterListEntry) Opcode() uint16 { return S_CHARACTER_LIST }
func (m CharacterListEntry) Encode(w *Writer) {
	w.WriteU8(m.Slot)
	w.WriteU32(m.CharacterID)
	w.WriteString(m.Name, NameLength)
}

// CharacterDetails is sent once when a character enters the world.
type CharacterDetails struct {
	CharacterID uint32
	Map         uint16
	X, Y, Z     float32
}

func (CharacterDetails) Opcode() uint16 { return S_CHARACTER_DETAILS }
func (m CharacterDetails) Encode(w *Writer) {
	w.WriteU32(m.CharacterID)
	w.WriteU16(m.Map)
	w.WriteF32(m.X)
	w.WriteF32(m.Y)
	w.WriteF32(m.Z)
}

// EntityAppear introduces an entity that entered the viewer's neighbourhood.
type EntityAppear struct {
	Kind    uint8
	ID      uint32
	TypeID  uint16
	X, Y, Z float32
	Name    string
}

func (EntityAppear) Opcode() uint16 { return S_ENTITY_APPEAR }
func (m EntityAppear) Encode(w *Writer) {
	w.WriteU8(m.Kind)
	w.WriteU32(m.ID)
	w.WriteU16(m.TypeID)
	w.WriteF32(m.X)
	w.WriteF32(m.Y)
	w.WriteF32(m.Z)
	w.WriteString(m.Name, NameLength)
}

// EntityMove reports a new position for an entity the viewer already knows.
type EntityMove struct {
	Kind    uint8
	ID      uint32
	X, Y, Z float32
	Running bool
}

func (EntityMove) Opcode() uint16 { return S_ENTITY_MOVE }
func (m EntityMove) Encode(w *Writer) {
	w.WriteU8(m.Kind)
	w.WriteU32(m.ID)
	w.WriteF32(m.X)
	w.WriteF32(m.Y)
	w.WriteF32(m.Z)
	w.WriteBool(m.Running)
}

// EntityDisappear removes an entity from the viewer's client.
type EntityDisappear struct {
	Kind uint8
	ID   uint32
}

func (EntityDisappear) Opcode() uint16 { return S_ENTITY_DISAPPEAR }
func (m EntityDisappear) Encode(w *Writer) {
	w.WriteU8(m.Kind)
	w.WriteU32(m.ID)
}

// MovementState broadcasts a character's stance change.
type MovementState struct {
	CharacterID uint32
	State       uint8
}

func (MovementState) Opcode() uint16 { return S_MOVEMENT_STATE }
func (m MovementState) Encode(w *Writer) {
	w.WriteU32(m.CharacterID)
	w.WriteU8(m.State)
}

// Chat is local chat relayed to nearby characters.
type Chat struct {
	SenderID uint32
	Name     string
	Text     string
}

func (Chat) Opcode() uint16 { return S_CHAT }
func (m Chat) Encode(w *Writer) {
	w.WriteU32(m.SenderID)
	w.WriteString(m.Name, NameLength)
	w.WriteText(m.Text)
}

// SystemNotice is a server message shown only to its recipient.
type SystemNotice struct {
	Text string
}

func (SystemNotice) Opcode() uint16 { return S_SYSTEM_NOTICE }
func (m SystemNotice) Encode(w *Writer) {
	w.WriteText(m.Text)
}
