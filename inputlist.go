// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorio

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// InputList is the parsed form of an input list file: the ordered file
// path queue of every input tensor of one graph, plus the optional
// tensor-name association.
type InputList struct {
	// FilePaths holds one ordered path list per input tensor; position
	// k of every list belongs to the same inference iteration.
	FilePaths [][]string
	// InputNameToIndex maps an input tensor name to its list in
	// FilePaths. It is nil when the input list carries no names, in
	// which case lists are matched to tensors positionally.
	InputNameToIndex map[string]uint32
}

// ReadInputList parses an input list file.
//
// Each non-empty line describes one inference iteration and holds one
// whitespace-separated file path per input tensor, optionally in the
// form "name:=path" to bind the column to a tensor name. Lines starting
// with '#' are comments; a line starting with '%' lists the input
// tensor names in column order.
func ReadInputList(path string) (InputList, error) {
	f, err := os.Open(path)
	if err != nil {
		return InputList{}, fmt.Errorf("failed to open input list: %w", err)
	}
	defer f.Close()

	list, err := parseInputList(f)
	if err != nil {
		return InputList{}, fmt.Errorf("invalid input list %q: %w", path, err)
	}
	return list, nil
}

// ReadInputLists parses one input list file per graph.
func ReadInputLists(paths []string) ([]InputList, error) {
	lists := make([]InputList, len(paths))
	for i, path := range paths {
		var err error
		if lists[i], err = ReadInputList(path); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

func parseInputList(f *os.File) (InputList, error) {
	var list InputList

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "%"):
			names := strings.Fields(strings.TrimPrefix(line, "%"))
			if len(names) == 0 {
				return InputList{}, fmt.Errorf("line %d: empty input name header", lineNo)
			}
			list.InputNameToIndex = make(map[string]uint32, len(names))
			for i, name := range names {
				list.InputNameToIndex[name] = uint32(i)
			}
		default:
			if err := parseInputListLine(&list, line, lineNo); err != nil {
				return InputList{}, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return InputList{}, fmt.Errorf("failed to read input list: %w", err)
	}
	return list, nil
}

func parseInputListLine(list *InputList, line string, lineNo int) error {
	fields := strings.Fields(line)
	if list.FilePaths == nil {
		list.FilePaths = make([][]string, len(fields))
	}
	if len(fields) != len(list.FilePaths) {
		return fmt.Errorf("line %d: %d paths, expected %d", lineNo, len(fields), len(list.FilePaths))
	}

	for i, field := range fields {
		if name, p, ok := strings.Cut(field, ":="); ok {
			if list.InputNameToIndex == nil {
				list.InputNameToIndex = make(map[string]uint32, len(fields))
			}
			if prev, seen := list.InputNameToIndex[name]; seen && prev != uint32(i) {
				return fmt.Errorf("line %d: input %q moved from column %d to %d", lineNo, name, prev, i)
			}
			list.InputNameToIndex[name] = uint32(i)
			field = p
		}
		if field == "" {
			return fmt.Errorf("line %d: empty file path in column %d", lineNo, i)
		}
		list.FilePaths[i] = append(list.FilePaths[i], field)
	}
	return nil
}
