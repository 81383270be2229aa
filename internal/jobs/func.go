package jobs

// FuncTask runs a function on a cron schedule.
type FuncTask struct {
	name     string
	schedule string
	fn       func()
}

func NewFuncTask(name, schedule string, fn func()) *FuncTask {
	return &FuncTask{name: name, schedule: schedule, fn: fn}
}

func (f *FuncTask) Name() string {
	return f.name
}

func (f *FuncTask) Schedule() string {
	return f.schedule
}

func (f *FuncTask) Run() {
	f.fn()
}
