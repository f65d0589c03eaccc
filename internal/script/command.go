// Package script parses and executes ordset scripts: one set command per
// line against a registry of named integer sets.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse errors, wrapped by *ParseError.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
	ErrArity          = errors.New("wrong number of arguments")
)

// Op identifies a script command.
type Op int

// Script commands.
const (
	OpUse Op = iota
	OpInsert
	OpDelete
	OpExists
	OpNext
	OpPrev
	OpKth
	OpRank
	OpSize
	OpMin
	OpMax
	OpClear
	OpDump
)

type opInfo struct {
	name string
	// takesValue reports whether the command has one int64 operand.
	takesValue bool
	// takesName reports whether the command has one set name operand.
	takesName bool
	// mutates reports whether the command can change the active set.
	mutates bool
}

var opTable = [...]opInfo{
	OpUse:    {name: "use", takesName: true},
	OpInsert: {name: "insert", takesValue: true, mutates: true},
	OpDelete: {name: "delete", takesValue: true, mutates: true},
	OpExists: {name: "exists", takesValue: true},
	OpNext:   {name: "next", takesValue: true},
	OpPrev:   {name: "prev", takesValue: true},
	OpKth:    {name: "kth", takesValue: true},
	OpRank:   {name: "rank", takesValue: true},
	OpSize:   {name: "size"},
	OpMin:    {name: "min"},
	OpMax:    {name: "max"},
	OpClear:  {name: "clear", mutates: true},
	OpDump:   {name: "dump"},
}

var opsByName = func() map[string]Op {
	ops := make(map[string]Op, len(opTable))
	for op, info := range opTable {
		ops[info.name] = Op(op)
	}

	return ops
}()

// String returns the script keyword of the command.
func (op Op) String() string {
	if op < 0 || int(op) >= len(opTable) {
		return "op(" + strconv.Itoa(int(op)) + ")"
	}

	return opTable[op].name
}

// Mutates reports whether the command can change the active set.
func (op Op) Mutates() bool {
	return opTable[op].mutates
}

// Command is one parsed script line.
type Command struct {
	// Name is the operand of use.
	Name string
	// Value is the integer operand, if the command takes one.
	Value int64
	Op    Op
	// Line is the 1-based source line.
	Line int
}

// ParseError reports a malformed script line.
type ParseError struct {
	Err  error
	Text string
	Line int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a whole script. Blank lines and everything after '#' are ignored.
// It stops at the first malformed line.
func Parse(r io.Reader) ([]Command, error) {
	var commands []Command

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		cmd, ok, err := ParseLine(lineNo, scanner.Text())
		if err != nil {
			return nil, err
		}

		if ok {
			commands = append(commands, cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return commands, nil
}

// ParseLine parses a single line. It returns ok=false for blank and comment lines.
func ParseLine(lineNo int, text string) (Command, bool, error) {
	if idx := strings.IndexByte(text, '#'); idx >= 0 {
		text = text[:idx]
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{}, false, nil
	}

	op, known := opsByName[strings.ToLower(fields[0])]
	if !known {
		return Command{}, false, &ParseError{Err: ErrUnknownCommand, Text: fields[0], Line: lineNo}
	}

	info := opTable[op]
	cmd := Command{Op: op, Line: lineNo}

	wantArgs := 0
	if info.takesValue || info.takesName {
		wantArgs = 1
	}

	if len(fields)-1 != wantArgs {
		return Command{}, false, &ParseError{Err: ErrArity, Text: strings.Join(fields, " "), Line: lineNo}
	}

	switch {
	case info.takesName:
		cmd.Name = fields[1]
	case info.takesValue:
		value, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Command{}, false, &ParseError{Err: ErrBadArgument, Text: fields[1], Line: lineNo}
		}

		cmd.Value = value
	}

	return cmd, true, nil
}
