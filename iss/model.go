package iss

import (
	"sort"
	"strconv"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

type regKey struct {
	cpu  CPUID
	name string
}

type memKey struct {
	cpu  CPUID
	bank uint8
}

// Model is a deterministic in-memory stand-in for the real ISS shared
// object (spec.md §1/§6 place the real FFI bridge out of scope). It keeps
// a register and physical-memory store per hart, executes the fixed
// forward µops for real, and lets a test or cmd/forceaddr's demo driver
// script a Step's worth of updates ahead of time since there is no actual
// instruction-semantics engine behind it.
type Model struct {
	initialised bool
	numHarts    int

	registers map[regKey]uint64
	masks     map[regKey]uint64
	memory    map[memKey]map[uint64]byte

	pendingSteps map[CPUID][]StepResult
	pendingVec   map[CPUID][][]VectorElementUpdate
}

// NewModel returns an uninitialised Model; call Initialise before use.
func NewModel() *Model {
	return &Model{
		registers:    make(map[regKey]uint64),
		masks:        make(map[regKey]uint64),
		memory:       make(map[memKey]map[uint64]byte),
		pendingSteps: make(map[CPUID][]StepResult),
		pendingVec:   make(map[CPUID][][]VectorElementUpdate),
	}
}

func (m *Model) Initialise(opts Options) error {
	if opts.NumHarts <= 0 {
		return forceerr.New(forceerr.ConstraintMalformed, "Model.Initialise", "NumHarts must be positive")
	}
	m.numHarts = opts.NumHarts
	m.initialised = true
	return nil
}

func (m *Model) Terminate() error {
	m.initialised = false
	return nil
}

func (m *Model) checkHart(op string, cpu CPUID) error {
	if !m.initialised {
		return notInitialisedErr(op)
	}
	if int(cpu) >= m.numHarts {
		return forceerr.New(forceerr.UnknownName, op, "no such hart")
	}
	return nil
}

func (m *Model) ReadRegister(cpu CPUID, name string) (uint64, uint64, error) {
	if err := m.checkHart("Model.ReadRegister", cpu); err != nil {
		return 0, 0, err
	}
	key := regKey{cpu, name}
	return m.registers[key], m.masks[key], nil
}

func (m *Model) WriteRegister(cpu CPUID, name string, value, mask uint64) error {
	if err := m.checkHart("Model.WriteRegister", cpu); err != nil {
		return err
	}
	key := regKey{cpu, name}
	m.registers[key] = (m.registers[key] &^ mask) | (value & mask)
	m.masks[key] |= mask
	return nil
}

func (m *Model) PartialReadLargeRegister(cpu CPUID, name string, byteOffset, byteLen int) ([]byte, error) {
	if err := m.checkHart("Model.PartialReadLargeRegister", cpu); err != nil {
		return nil, err
	}
	value, _, _ := m.ReadRegister(cpu, name)
	out := make([]byte, byteLen)
	for i := 0; i < byteLen; i++ {
		shift := uint((byteOffset + i) * 8)
		if shift < 64 {
			out[i] = byte(value >> shift)
		}
	}
	return out, nil
}

func (m *Model) PartialWriteLargeRegister(cpu CPUID, name string, byteOffset int, data []byte) error {
	if err := m.checkHart("Model.PartialWriteLargeRegister", cpu); err != nil {
		return err
	}
	value, mask, _ := m.ReadRegister(cpu, name)
	for i, b := range data {
		shift := uint((byteOffset + i) * 8)
		if shift >= 64 {
			continue
		}
		byteMask := uint64(0xff) << shift
		value = (value &^ byteMask) | (uint64(b) << shift)
		mask |= byteMask
	}
	key := regKey{cpu, name}
	m.registers[key] = value
	m.masks[key] = mask
	return nil
}

func (m *Model) ReadPhysicalMemory(cpu CPUID, bank uint8, addr uint64, length int) ([]byte, error) {
	if err := m.checkHart("Model.ReadPhysicalMemory", cpu); err != nil {
		return nil, err
	}
	bytes, ok := m.memory[memKey{cpu, bank}]
	out := make([]byte, length)
	if !ok {
		return out, nil
	}
	for i := 0; i < length; i++ {
		out[i] = bytes[addr+uint64(i)]
	}
	return out, nil
}

func (m *Model) WritePhysicalMemory(cpu CPUID, bank uint8, addr uint64, data []byte) error {
	if err := m.checkHart("Model.WritePhysicalMemory", cpu); err != nil {
		return err
	}
	key := memKey{cpu, bank}
	bytes, ok := m.memory[key]
	if !ok {
		bytes = make(map[uint64]byte)
		m.memory[key] = bytes
	}
	for i, b := range data {
		bytes[addr+uint64(i)] = b
	}
	return nil
}

// QueueStep stages a StepResult to be returned (and applied to the
// register/memory store) by the next Step call for cpu.
func (m *Model) QueueStep(cpu CPUID, result StepResult) {
	m.pendingSteps[cpu] = append(m.pendingSteps[cpu], result)
}

// QueueVectorElements stages a batch of element-granular writes to be
// aggregated into whole-register RegisterUpdates by the next Step call,
// per spec.md §6's vector-element aggregation rule.
func (m *Model) QueueVectorElements(cpu CPUID, elems []VectorElementUpdate) {
	m.pendingVec[cpu] = append(m.pendingVec[cpu], elems)
}

func (m *Model) Step(cpu CPUID) (StepResult, error) {
	if err := m.checkHart("Model.Step", cpu); err != nil {
		return StepResult{}, err
	}
	var result StepResult
	if queue := m.pendingSteps[cpu]; len(queue) > 0 {
		result = queue[0]
		m.pendingSteps[cpu] = queue[1:]
	}
	if vecBatches := m.pendingVec[cpu]; len(vecBatches) > 0 {
		result.RegisterUpdates = append(result.RegisterUpdates, AggregateVectorElements(vecBatches[0])...)
		m.pendingVec[cpu] = vecBatches[1:]
	}
	for _, ru := range result.RegisterUpdates {
		width := uint(ru.HiBit-ru.LoBit) + 1
		mask := uint64(1)<<width - 1
		if width == 64 {
			mask = ^uint64(0)
		}
		key := regKey{ru.CPU, ru.Name}
		shifted := mask << ru.LoBit
		m.registers[key] = (m.registers[key] &^ shifted) | ((ru.Value << ru.LoBit) & shifted)
		m.masks[key] |= shifted
	}
	for _, mu := range result.MemoryUpdates {
		_ = m.WritePhysicalMemory(mu.CPU, mu.Bank, mu.Addr, mu.Bytes)
	}
	return result, nil
}

func (m *Model) ExecuteUop(cpu CPUID, code UopCode, inputs []UopParam) ([]UopParam, error) {
	if err := m.checkHart("Model.ExecuteUop", cpu); err != nil {
		return nil, err
	}
	return executeUopForward(code, inputs)
}

// AggregateVectorElements folds a batch of same-step element writes into
// whole physical-register RegisterUpdates, one per (name, vreg index) with
// the lowest/highest touched element determining the reported bit
// interval, as spec.md §6 requires.
func AggregateVectorElements(elems []VectorElementUpdate) []RegisterUpdate {
	type regGroup struct {
		cpu        CPUID
		name       string
		vreg       int
		accessType MemAccessType
		lo, hi     int // element indices touched
		values     map[int]uint64
		eltBits    int
	}
	groups := make(map[string]*regGroup)
	order := make([]string, 0, len(elems))
	for _, e := range elems {
		key := groupKey(e.CPU, e.Name, e.VRegIndex)
		g, ok := groups[key]
		if !ok {
			g = &regGroup{
				cpu: e.CPU, name: e.Name, vreg: e.VRegIndex,
				accessType: e.AccessType, lo: e.EltIndex, hi: e.EltIndex,
				values: make(map[int]uint64), eltBits: e.EltByteWidth * 8,
			}
			groups[key] = g
			order = append(order, key)
		}
		if e.EltIndex < g.lo {
			g.lo = e.EltIndex
		}
		if e.EltIndex > g.hi {
			g.hi = e.EltIndex
		}
		g.values[e.EltIndex] = e.Value
	}
	sort.Strings(order)
	out := make([]RegisterUpdate, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		loBit := g.lo * g.eltBits
		hiBit := (g.hi+1)*g.eltBits - 1
		var packed uint64
		for idx := g.lo; idx <= g.hi; idx++ {
			v, ok := g.values[idx]
			if !ok {
				continue
			}
			shift := uint((idx - g.lo) * g.eltBits)
			if shift < 64 {
				packed |= v << shift
			}
		}
		out = append(out, RegisterUpdate{
			CPU: g.cpu, Name: g.name,
			LoBit: uint8(loBit), HiBit: uint8(hiBit),
			Value: packed, AccessType: g.accessType,
		})
	}
	return out
}

func groupKey(cpu CPUID, name string, vreg int) string {
	const sep = "\x00"
	return name + sep + strconv.Itoa(int(cpu)) + sep + strconv.Itoa(vreg)
}
