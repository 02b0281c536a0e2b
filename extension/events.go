// events.go defines the event types for extension notifications.
//
// Separated from extension.go to isolate the event system. Events let
// extensions react to tree changes without modifying core logic.
//
// Design: Events are fire-and-forget notifications, not approval requests.
// They are delivered after the transaction that caused them has committed,
// so an extension never observes a change that is later rolled back.

package extension

// EventType identifies the kind of event.
type EventType string

const (
	EventNodeCreate      EventType = "node:create"
	EventNodeUpdate      EventType = "node:update"
	EventNodeDelete      EventType = "node:delete"
	EventNodeRestore     EventType = "node:restore"
	EventNodePurge       EventType = "node:purge"
	EventNodeReorder     EventType = "node:reorder"
	EventBindingBind     EventType = "binding:bind"
	EventBindingUnbind   EventType = "binding:unbind"
	EventDocumentDelete  EventType = "document:delete"
	EventDocumentRestore EventType = "document:restore"
)

// EventTypes lists every event the tree fires, in declaration order.
var EventTypes = []EventType{
	EventNodeCreate, EventNodeUpdate, EventNodeDelete, EventNodeRestore, EventNodePurge,
	EventNodeReorder, EventBindingBind, EventBindingUnbind, EventDocumentDelete, EventDocumentRestore,
}

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	EventPath() string
	EventActor() string
}

// NodeEvent is fired after a node is created, updated, soft-deleted or
// restored. OldPath is set when an update moved or renamed the node.
type NodeEvent struct {
	Type    EventType
	NodeID  int64
	Path    string
	OldPath string
	Actor   string
}

func (e NodeEvent) EventType() EventType { return e.Type }
func (e NodeEvent) EventPath() string    { return e.Path }
func (e NodeEvent) EventActor() string   { return e.Actor }

// NodePurgeEvent is fired after a soft-deleted subtree is physically removed.
type NodePurgeEvent struct {
	NodeID   int64
	Path     string
	Nodes    int64
	Bindings int64
	Actor    string
}

func (e NodePurgeEvent) EventType() EventType { return EventNodePurge }
func (e NodePurgeEvent) EventPath() string    { return e.Path }
func (e NodePurgeEvent) EventActor() string   { return e.Actor }

// ReorderEvent is fired after the children of a parent are reordered.
// ParentID is 0 for the root level.
type ReorderEvent struct {
	ParentID   int64
	ParentPath string
	Order      []int64
	Actor      string
}

func (e ReorderEvent) EventType() EventType { return EventNodeReorder }
func (e ReorderEvent) EventPath() string    { return e.ParentPath }
func (e ReorderEvent) EventActor() string   { return e.Actor }

// BindingEvent is fired after a binding is created, revived, retyped or removed.
type BindingEvent struct {
	NodeID       int64
	Path         string
	DocumentID   int64
	RelationType string
	Actor        string
	Bound        bool // true=bound, false=unbound
}

func (e BindingEvent) EventType() EventType {
	if e.Bound {
		return EventBindingBind
	}
	return EventBindingUnbind
}
func (e BindingEvent) EventPath() string  { return e.Path }
func (e BindingEvent) EventActor() string { return e.Actor }

// DocumentEvent is fired after a document is soft-deleted or restored.
// Nodes lists the nodes whose counters changed as a result.
type DocumentEvent struct {
	DocumentID int64
	Nodes      []int64
	Actor      string
	Deleted    bool // true=deleted, false=restored
}

func (e DocumentEvent) EventType() EventType {
	if e.Deleted {
		return EventDocumentDelete
	}
	return EventDocumentRestore
}
func (e DocumentEvent) EventPath() string  { return "" }
func (e DocumentEvent) EventActor() string { return e.Actor }

// EventHandler is implemented by extensions that want to receive events.
type EventHandler interface {
	HandleEvent(ctx Context, e Event) error
}
