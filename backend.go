package main

type opKind int

const (
	opTouch opKind = iota
	opWrite
	opSetAttr
	opRemove
)

type txOp struct {
	kind   opKind
	object string
	offset uint64
	data   []byte
	key    string
	value  []byte
}

// Transaction is an ordered batch of operations committed as a unit.
// Ownership of payload slices transfers to the backend on Queue.
type Transaction struct {
	ops      []txOp
	onCommit *Completion
}

func (t *Transaction) Touch(object string) {
	t.ops = append(t.ops, txOp{kind: opTouch, object: object})
}

func (t *Transaction) WriteAt(object string, offset uint64, data []byte) {
	t.ops = append(t.ops, txOp{kind: opWrite, object: object, offset: offset, data: data})
}

func (t *Transaction) SetAttr(object, key string, value []byte) {
	t.ops = append(t.ops, txOp{kind: opSetAttr, object: object, key: key, value: value})
}

func (t *Transaction) Remove(object string) {
	t.ops = append(t.ops, txOp{kind: opRemove, object: object})
}

// RegisterOnCommit attaches c to be signalled once the transaction has
// committed. Transactions queued before this one in the same batch are
// committed first, so a completion on the final transaction covers the
// whole batch.
func (t *Transaction) RegisterOnCommit(c *Completion) {
	t.onCommit = c
}

// Backend is the storage engine contract. Queue returns as soon as the
// transactions are accepted; commits happen asynchronously and are
// reported through registered completions. Implementations must be safe
// for concurrent Queue calls.
type Backend interface {
	Mkfs() error
	Mount() error
	Unmount() error
	CreateCollection(coll string) error
	Queue(coll string, txns ...*Transaction) error
}

func newBackend() (Backend, error) {
	switch config.engine {
	case EngineMem:
		return newMemStore(), nil
	case EngineDisk:
		return newDiskStore(config.dataDir), nil
	}
	return nil, configErrorf("unknown engine %q", config.engine)
}
