package domain

// Operation is one of the canonical protocol-level actions.
type Operation string

const (
	OperationAuthorize Operation = "authorize"
	OperationCapture   Operation = "capture"
	OperationPurchase  Operation = "purchase"
	OperationVoid      Operation = "void"
	OperationRefund    Operation = "refund"
	OperationStore     Operation = "store"
	OperationRetrieve  Operation = "retrieve"
	OperationUpdate    Operation = "update"
	OperationUnstore   Operation = "unstore"
)

// Operations lists every canonical operation in protocol order.
// Capability sets are always reported in this order.
var Operations = []Operation{
	OperationAuthorize,
	OperationCapture,
	OperationPurchase,
	OperationVoid,
	OperationRefund,
	OperationStore,
	OperationRetrieve,
	OperationUpdate,
	OperationUnstore,
}

// ParseOperation maps an action name onto a canonical operation.
func ParseOperation(action string) (Operation, bool) {
	for _, op := range Operations {
		if string(op) == action {
			return op, true
		}
	}
	return "", false
}

func (o Operation) String() string {
	return string(o)
}
