package evm

import "github.com/entropyio/go-evm/word"

func init() {
	for op := LOG0; op <= LOG4; op++ {
		register(op, &operation{name: "LOG", exec: makeLog(op.logN()), minStack: 2 + op.logN(), forbiddenStatic: true})
	}
}

// makeLog returns a handler for LOG0..LOG4: pop (offset, length, then
// n topics), append a LogRecord carrying the memory slice and topics.
func makeLog(n int) instructionFn {
	return func(r *Runner) error {
		offset, err := r.stack.Pop()
		if err != nil {
			return err
		}
		length, err := r.stack.Pop()
		if err != nil {
			return err
		}
		topics := make([]word.Word, n)
		for i := 0; i < n; i++ {
			t, err := r.stack.Pop()
			if err != nil {
				return err
			}
			topics[i] = t
		}
		data := r.memory.ReadGrowing(int(offset.Uint64()), int(length.Uint64()))
		r.logs = append(r.logs, LogRecord{
			Address: r.ctx.Address,
			Topics:  topics,
			Data:    data,
		})
		return nil
	}
}
