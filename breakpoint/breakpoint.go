// Package breakpoint holds the breakpoint data model and the file-indexed
// collection the selective trace dispatcher consults on every candidate
// frame.
package breakpoint

import (
	"fmt"
	"sync"
)

// ID uniquely identifies a breakpoint within a running engine instance.
type ID int

// Breakpoint is a single line (or function) breakpoint, optionally guarded
// by a condition expression, a hit-count condition, or turned into a
// logpoint by a log message.
type Breakpoint struct {
	id           ID
	File         string
	Line         int
	Condition    string
	HitCondition string
	LogMessage   string
}

// Id returns the breakpoint's stable identifier.
func (b *Breakpoint) Id() ID { return b.id }

// IsLogpoint reports whether this breakpoint is a non-stopping logpoint.
func (b *Breakpoint) IsLogpoint() bool { return b.LogMessage != "" }

// IsConditional reports whether this breakpoint carries a condition or hit
// condition that must be evaluated before it fires.
func (b *Breakpoint) IsConditional() bool {
	return b.Condition != "" || b.HitCondition != ""
}

func (b *Breakpoint) String() string {
	return fmt.Sprintf("breakpoint(id=%d, file=%s, line=%d)", b.id, b.File, b.Line)
}

// list is a simple slice-backed bucket of breakpoints for one file.
type list []*Breakpoint

func (bl list) linesOnly() []int {
	lines := make([]int, 0, len(bl))
	for _, b := range bl {
		lines = append(lines, b.Line)
	}
	return lines
}

// Collection is a concurrency-safe, file-indexed store of breakpoints with
// monotonically increasing ids, condition/hit-condition/log-message fields
// included.
type Collection struct {
	mu         sync.RWMutex
	byFile     map[string]list
	idCounter  ID
}

// NewCollection returns an empty breakpoint collection.
func NewCollection() *Collection {
	return &Collection{byFile: make(map[string]list)}
}

// Add registers a new breakpoint and returns it with its assigned id.
func (c *Collection) Add(file string, line int, condition, hitCondition, logMessage string) *Breakpoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.idCounter++
	bp := &Breakpoint{
		id:           c.idCounter,
		File:         file,
		Line:         line,
		Condition:    condition,
		HitCondition: hitCondition,
		LogMessage:   logMessage,
	}
	c.byFile[file] = append(c.byFile[file], bp)
	return bp
}

// SetForFile replaces all breakpoints for a file in one call, as DAP's
// setBreakpoints request does: it's a full-replace operation, not an
// incremental add. Ids are reassigned to the new set.
func (c *Collection) SetForFile(file string, specs []Spec) []*Breakpoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(list, 0, len(specs))
	for _, s := range specs {
		c.idCounter++
		out = append(out, &Breakpoint{
			id:           c.idCounter,
			File:         file,
			Line:         s.Line,
			Condition:    s.Condition,
			HitCondition: s.HitCondition,
			LogMessage:   s.LogMessage,
		})
	}
	c.byFile[file] = out

	result := make([]*Breakpoint, len(out))
	copy(result, out)
	return result
}

// Spec describes one breakpoint to install, without an id — the shape a DAP
// setBreakpoints request arrives in.
type Spec struct {
	Line         int
	Condition    string
	HitCondition string
	LogMessage   string
}

// AllForFile returns the breakpoints registered for file, or nil if none.
func (c *Collection) AllForFile(file string) []*Breakpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bl, ok := c.byFile[file]
	if !ok || len(bl) == 0 {
		return nil
	}
	out := make([]*Breakpoint, len(bl))
	copy(out, bl)
	return out
}

// LinesForFile returns just the line numbers registered for file. This is
// the hot-path-friendly accessor: the dispatcher only needs a membership
// test against line numbers for the common unconditional case.
func (c *Collection) LinesForFile(file string) []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byFile[file].linesOnly()
}

// Remove drops the breakpoint at (file, line), if any, reporting whether a
// matching breakpoint was found.
func (c *Collection) Remove(file string, line int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	bl, ok := c.byFile[file]
	if !ok {
		return false
	}
	for i, bp := range bl {
		if bp.Line == line {
			c.byFile[file] = append(bl[:i], bl[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes all breakpoints for a file.
func (c *Collection) Clear(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byFile, file)
}

// ClearAll removes every breakpoint in the collection.
func (c *Collection) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFile = make(map[string]list)
}

// Files returns the set of files with at least one registered breakpoint.
func (c *Collection) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byFile))
	for f, bl := range c.byFile {
		if len(bl) == 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FunctionSpec describes one function-name breakpoint, the shape a DAP
// setFunctionBreakpoints request arrives in.
type FunctionSpec struct {
	Name         string
	Condition    string
	HitCondition string
}

// FunctionBreakpoints is a full-replace set of function-name breakpoints,
// the function-name analog of Collection's per-file line sets. A
// FuncCodeInfo's always_skip only holds when neither a line breakpoint nor
// a function-name breakpoint matches the code object.
type FunctionBreakpoints struct {
	mu   sync.RWMutex
	byID map[ID]FunctionSpec
	next ID
}

// NewFunctionBreakpoints returns an empty function-breakpoint set.
func NewFunctionBreakpoints() *FunctionBreakpoints {
	return &FunctionBreakpoints{byID: make(map[ID]FunctionSpec)}
}

// SetAll replaces every function-name breakpoint, DAP's setFunctionBreakpoints
// full-replace semantics, and returns the assigned ids alongside each spec.
func (f *FunctionBreakpoints) SetAll(specs []FunctionSpec) []ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byID = make(map[ID]FunctionSpec, len(specs))
	ids := make([]ID, len(specs))
	for i, s := range specs {
		f.next++
		f.byID[f.next] = s
		ids[i] = f.next
	}
	return ids
}

// Matches reports whether name has a registered function-name breakpoint.
func (f *FunctionBreakpoints) Matches(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.byID {
		if s.Name == name {
			return true
		}
	}
	return false
}

func (c *Collection) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("breakpoint.Collection(%d files)", len(c.byFile))
}
