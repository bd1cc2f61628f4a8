package common

// Location is the GATT Bluetooth SIG location descriptor tag for an element.
type Location uint16

// Features are the optional node capabilities advertised in composition data
// and gated at the network layer ( §4.1 relay policy, §9 "configurable
// features"): absent features must be silently ignored on reception.
type Features struct {
	Relay bool
	Proxy bool
	Friend bool
	LowPower bool
}

// Emit renders the two-byte feature bitfield (bits 15-8 reserved).
func (f Features) Emit() [2]byte {
	var v byte
	if f.Relay {
 v |= 0b0001
	}
	if f.Proxy {
 v |= 0b0010
	}
	if f.Friend {
 v |= 0b0100
	}
	if f.LowPower {
 v |= 0b1000
	}
	return [2]byte{v, 0}
}

// ElementDescriptor describes one addressable element of the node:
// a location tag and its ordered list of model identifiers, §3.
type ElementDescriptor struct {
	Loc Location
	Models []ModelIdentifier
}

// NewElementDescriptor constructs an element at the given location.
func NewElementDescriptor(loc Location) *ElementDescriptor {
	return &ElementDescriptor{Loc: loc}
}

// AddModel appends a model identifier to the element.
func (e *ElementDescriptor) AddModel(m ModelIdentifier) {
	e.Models = append(e.Models, m)
}

// HasModel reports whether the element registers the given model identifier.
func (e *ElementDescriptor) HasModel(m ModelIdentifier) bool {
	for _, have := range e.Models {
 if have == m {
 return true
 }
	}
	return false
}

// Composition is the node's read-only self-description, §3:
// CID, PID, VID, replay-cache capacity (CRPL), feature bits, ordered elements.
type Composition struct {
	CID CompanyIdentifier
	PID ProductIdentifier
	VID VersionIdentifier
	CRPL uint16
	Features Features
	Elements []*ElementDescriptor
}

// NewComposition constructs an empty composition with default (all-disabled) features.
func NewComposition(cid CompanyIdentifier, pid ProductIdentifier, vid VersionIdentifier, crpl uint16) *Composition {
	return &Composition{CID: cid, PID: pid, VID: vid, CRPL: crpl}
}

// AddElement appends an element descriptor, returning it for chained AddModel calls.
func (c *Composition) AddElement(e *ElementDescriptor) *ElementDescriptor {
	c.Elements = append(c.Elements, e)
	return e
}

// NumberOfElements returns the element count as it appears on the wire (one byte).
func (c *Composition) NumberOfElements() uint8 {
	return uint8(len(c.Elements))
}

// ElementAddress returns the unicast address of the element at elementIndex,
// given the node's primary unicast address (elements occupy consecutive
// unicast addresses starting at primary), or false if out of range.
func (c *Composition) ElementAddress(primary Address, elementIndex int) (Address, bool) {
	if elementIndex < 0 || elementIndex >= len(c.Elements) {
 return 0, false
	}
	return primary + Address(elementIndex), true
}
