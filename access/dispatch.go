package access

import (
	"go.uber.org/multierr"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/secrets"
)

// Message is a decrypted access message ready for dispatch, 
// §4.4 "given a decrypted access message with (opcode, parameters, src,
// dst, key-handle, label-uuid)".
type Message struct {
	Opcode Opcode
	Parameters []byte
	Src, Dst common.Address
	DeviceKey bool
	AppKey secrets.ApplicationKeyHandle
	LabelUUID *common.LabelUUID
}

// Handler is implemented by one model within one element.
type Handler interface {
	// ElementAddress is this model's owning element's unicast address.
	ElementAddress() common.Address
	// Subscriptions lists every address (unicast/group/virtual) this model
	// will accept messages addressed to, in addition to its own element
	// address.
	Subscriptions() []common.Address
	// Handles reports whether this model registers opcode.
	Handles(op Opcode) bool
	// Handle processes one dispatched message.
	Handle(msg Message) error
}

// Dispatcher fans a decrypted access message out to every (element, model)
// pair whose address matches and whose model registers the opcode,
// §4.4 "Dispatch is fan-out".
type Dispatcher struct {
	handlers []Handler
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds a model handler.
func (d *Dispatcher) Register(h Handler) {
	d.handlers = append(d.handlers, h)
}

func addressMatches(h Handler, dst common.Address) bool {
	if h.ElementAddress() == dst {
		return true
	}
	for _, sub := range h.Subscriptions() {
		if sub == dst {
			return true
		}
	}
	return false
}

// Dispatch delivers msg to every matching handler, collecting per-handler
// errors with multierr so a single misbehaving model never suppresses
// delivery to its siblings.
func (d *Dispatcher) Dispatch(msg Message) error {
	var err error
	for _, h := range d.handlers {
 if !addressMatches(h, msg.Dst) {
 continue
 }
 if !h.Handles(msg.Opcode) {
 continue
 }
 err = multierr.Append(err, h.Handle(msg))
	}
	return err
}
