// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlsafe

// SegmentKind identifies the lexical region a Segment belongs to.
type SegmentKind int

const (
	// SegmentCode is SQL text outside of any string literal or comment.
	SegmentCode SegmentKind = iota
	// SegmentSingleQuoted is a '...' literal, quotes included.
	SegmentSingleQuoted
	// SegmentDoubleQuoted is a "..." identifier or literal, quotes included.
	SegmentDoubleQuoted
	// SegmentLineComment runs from "--" up to, but not including, the next newline.
	SegmentLineComment
	// SegmentBlockComment runs from "/*" through the first "*/".
	SegmentBlockComment
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentCode:
		return "code"
	case SegmentSingleQuoted:
		return "single-quoted"
	case SegmentDoubleQuoted:
		return "double-quoted"
	case SegmentLineComment:
		return "line-comment"
	case SegmentBlockComment:
		return "block-comment"
	default:
		return "unknown"
	}
}

// IsComment reports whether the segment is a comment of either form.
func (k SegmentKind) IsComment() bool {
	return k == SegmentLineComment || k == SegmentBlockComment
}

// IsString reports whether the segment is a quoted region.
func (k SegmentKind) IsString() bool {
	return k == SegmentSingleQuoted || k == SegmentDoubleQuoted
}

// Segment is a maximal run of SQL text sharing one lexical state.
type Segment struct {
	Kind SegmentKind
	Text string
	// Offset is the byte offset of Text within the scanned statement.
	Offset int
	// Terminated is false when a string or comment runs to end of input.
	// Code segments are always terminated.
	Terminated bool
}

// Scan walks sql and calls visit once per segment, in order. Scanning stops
// early when visit returns false.
//
// The scanner recognizes single-quoted and double-quoted regions, "--" line
// comments and "/* */" block comments. Comment markers inside a quoted region
// are literal text, and quote characters inside a comment are ignored. A
// doubled quote ('it''s') is treated as a close followed by a reopen, which
// yields the same regions as escape-aware scanning for all well-formed input.
// Backslash escapes are not recognized.
func Scan(sql string, visit func(Segment) bool) {
	state := SegmentCode
	start := 0
	i := 0

	emit := func(kind SegmentKind, end int, terminated bool) bool {
		if end <= start {
			return true
		}
		seg := Segment{Kind: kind, Text: sql[start:end], Offset: start, Terminated: terminated}
		start = end
		return visit(seg)
	}

	for i < len(sql) {
		ch := sql[i]

		switch state {
		case SegmentCode:
			next := byte(0)
			if i+1 < len(sql) {
				next = sql[i+1]
			}
			switch {
			case ch == '\'':
				if !emit(SegmentCode, i, true) {
					return
				}
				state = SegmentSingleQuoted
				i++
			case ch == '"':
				if !emit(SegmentCode, i, true) {
					return
				}
				state = SegmentDoubleQuoted
				i++
			case ch == '-' && next == '-':
				if !emit(SegmentCode, i, true) {
					return
				}
				state = SegmentLineComment
				i += 2
			case ch == '/' && next == '*':
				if !emit(SegmentCode, i, true) {
					return
				}
				state = SegmentBlockComment
				i += 2
			default:
				i++
			}

		case SegmentSingleQuoted, SegmentDoubleQuoted:
			quote := byte('\'')
			if state == SegmentDoubleQuoted {
				quote = '"'
			}
			i++
			if ch == quote {
				if !emit(state, i, true) {
					return
				}
				state = SegmentCode
			}

		case SegmentLineComment:
			// The newline belongs to the following code segment.
			if ch == '\n' {
				if !emit(state, i, true) {
					return
				}
				state = SegmentCode
				continue
			}
			i++

		case SegmentBlockComment:
			if ch == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				i += 2
				if !emit(state, i, true) {
					return
				}
				state = SegmentCode
				continue
			}
			i++
		}
	}

	emit(state, len(sql), state == SegmentCode)
}

// Segments returns every segment of sql in order.
func Segments(sql string) []Segment {
	var segs []Segment
	Scan(sql, func(seg Segment) bool {
		segs = append(segs, seg)
		return true
	})
	return segs
}
