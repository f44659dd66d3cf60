package fuzzutil

// Step is one action in a fuzz-driven test run.
type Step interface {
	DoStep()
}

// TestRun is a fixed sequence of steps, generated by repeatedly asking
// stepMaker for the next step until the byte stream is exhausted.
type TestRun struct {
	steps []Step
}

func NewTestRun(bytes []byte, stepMaker func(*ByteConsumer) Step) *TestRun {
	tr := &TestRun{}
	consumer := NewByteConsumer(bytes)

	for consumer.Len() > 0 {
		tr.steps = append(tr.steps, stepMaker(consumer))
	}

	return tr
}

func (t *TestRun) Run() {
	for _, step := range t.steps {
		step.DoStep()
	}
}
