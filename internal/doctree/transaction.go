package doctree

// Transaction is an ordered list of steps applied atomically.
type Transaction struct {
	Steps []Step
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

func (tx *Transaction) Step(steps ...Step) *Transaction {
	tx.Steps = append(tx.Steps, steps...)
	return tx
}

func (tx *Transaction) InsertText(pos int, text string, marks ...Mark) *Transaction {
	return tx.Step(InsertText{Pos: pos, Text: text, Marks: marks})
}

func (tx *Transaction) Delete(from, to int) *Transaction {
	return tx.Step(DeleteRange{From: from, To: to})
}

func (tx *Transaction) AddMark(from, to int, mark Mark) *Transaction {
	return tx.Step(AddMark{From: from, To: to, Mark: mark})
}

// RemoveMark removes every mark of kind from the range.
func (tx *Transaction) RemoveMark(from, to int, kind MarkKind) *Transaction {
	return tx.Step(RemoveMark{From: from, To: to, Kind: kind})
}

// RemoveMarkID removes the annotation mark of kind carrying id.
func (tx *Transaction) RemoveMarkID(from, to int, kind MarkKind, id string) *Transaction {
	return tx.Step(RemoveMark{From: from, To: to, Kind: kind, ID: id})
}

func (tx *Transaction) SetBlockType(from, to int, t NodeType, attrs Attrs) *Transaction {
	return tx.Step(SetBlockType{From: from, To: to, Type: t, Attrs: attrs})
}

func (tx *Transaction) SplitBlock(pos int) *Transaction {
	return tx.Step(SplitBlock{Pos: pos})
}

func (tx *Transaction) Empty() bool {
	return tx == nil || len(tx.Steps) == 0
}

// StepFilter rewrites a step right before it runs. It sees the working tree
// with every earlier step applied. The returned steps run in order and are
// not filtered again.
type StepFilter func(working *Node, step Step) ([]Step, error)
