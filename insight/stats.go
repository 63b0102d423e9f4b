package insight

import "time"

// Stats summarizes what a session observed. Counts cover intercepted
// interactions only; fast-tracked ones (other instances, guarded
// bookkeeping) are invisible here just as they are in the trace.
type Stats struct {
	Reads          int
	Writes         int
	Clears         int
	Calls          int
	MethodAccesses int
	Duration       time.Duration
}

// Total is the number of intercepted interactions across every
// category.
func (st Stats) Total() int {
	return st.Reads + st.Writes + st.Clears + st.Calls + st.MethodAccesses
}
