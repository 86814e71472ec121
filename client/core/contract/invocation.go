package contract

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// InvocationState 单次调用的状态
type InvocationState int

const (
	StateIdle InvocationState = iota
	StateValidated
	StateContractResolved
	StateProtocolResolved
	StateBuilderConfigured
	StateAwaitingHook
	StateHookExecuted
	StateDone
	StateFailed
)

var stateNames = map[InvocationState]string{
	StateIdle:              "idle",
	StateValidated:         "validated",
	StateContractResolved:  "contract_resolved",
	StateProtocolResolved:  "protocol_resolved",
	StateBuilderConfigured: "builder_configured",
	StateAwaitingHook:      "awaiting_hook",
	StateHookExecuted:      "hook_executed",
	StateDone:              "done",
	StateFailed:            "failed",
}

func (s InvocationState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal Done 与 Failed 为终止状态
func (s InvocationState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// 合法的前进转换；Failed 可由任意非终止状态进入
// 注册流程没有 hook，BuilderConfigured 可直接进入 Done
var transitions = map[InvocationState][]InvocationState{
	StateIdle:              {StateValidated},
	StateValidated:         {StateContractResolved},
	StateContractResolved:  {StateProtocolResolved},
	StateProtocolResolved:  {StateBuilderConfigured},
	StateBuilderConfigured: {StateAwaitingHook, StateDone},
	StateAwaitingHook:      {StateHookExecuted},
	StateHookExecuted:      {StateDone},
}

// Invocation 跟踪一次调用的状态，并为日志附加 invocation_id
type Invocation struct {
	ID        string
	Operation string

	mu     sync.Mutex
	state  InvocationState
	logger log.Logger
}

func newInvocation(operation string, logger log.Logger) *Invocation {
	id := uuid.NewString()
	return &Invocation{
		ID:        id,
		Operation: operation,
		state:     StateIdle,
		logger:    logger.With("module", log.ModuleContract, "invocation_id", id, "operation", operation),
	}
}

// State 当前状态
func (i *Invocation) State() InvocationState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Logger 带调用上下文的日志
func (i *Invocation) Logger() log.Logger {
	return i.logger
}

// Advance 前进到下一个状态
func (i *Invocation) Advance(to InvocationState) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, next := range transitions[i.state] {
		if next == to {
			i.logger.Debugf("state %s -> %s", i.state, to)
			i.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid invocation transition %s -> %s", i.state, to)
}

// Fail 进入 Failed 并原样返回 err
func (i *Invocation) Fail(err error) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.state.Terminal() {
		i.logger.Errorf("%s failed in state %s: %v", i.Operation, i.state, err)
		i.state = StateFailed
	}
	return err
}
