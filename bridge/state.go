package bridge

// State is the lifecycle state of a Bridge.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateProcessing
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	case StateReloading:
		return "reloading"
	default:
		return "unknown"
	}
}

// Stats counts bridge activity since creation.
type Stats struct {
	Batches        uint64
	DroppedBatches uint64
	Ops            uint64
	FailedOps      uint64
	SkippedEntries uint64
	LayoutPasses   uint64
	LayoutSkipped  uint64
	Events         uint64
	DroppedEvents  uint64
	Resolutions    uint64
	Epoch          uint64
	Nodes          int
	Handlers       int
}
