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

import (
	"strings"
	"testing"
)

func TestScan_Segments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "plain code",
			input: "SELECT 1",
			want: []Segment{
				{Kind: SegmentCode, Text: "SELECT 1", Offset: 0, Terminated: true},
			},
		},
		{
			name:  "single quoted",
			input: "a 'b' c",
			want: []Segment{
				{Kind: SegmentCode, Text: "a ", Offset: 0, Terminated: true},
				{Kind: SegmentSingleQuoted, Text: "'b'", Offset: 2, Terminated: true},
				{Kind: SegmentCode, Text: " c", Offset: 5, Terminated: true},
			},
		},
		{
			name:  "line comment keeps newline in code",
			input: "a -- x\nb",
			want: []Segment{
				{Kind: SegmentCode, Text: "a ", Offset: 0, Terminated: true},
				{Kind: SegmentLineComment, Text: "-- x", Offset: 2, Terminated: true},
				{Kind: SegmentCode, Text: "\nb", Offset: 6, Terminated: true},
			},
		},
		{
			name:  "unterminated block comment",
			input: "a /* x",
			want: []Segment{
				{Kind: SegmentCode, Text: "a ", Offset: 0, Terminated: true},
				{Kind: SegmentBlockComment, Text: "/* x", Offset: 2, Terminated: false},
			},
		},
		{
			name:  "comment markers inside string",
			input: `"--/*"`,
			want: []Segment{
				{Kind: SegmentDoubleQuoted, Text: `"--/*"`, Offset: 0, Terminated: true},
			},
		},
		{
			name:  "quote inside comment",
			input: "/* it's */x",
			want: []Segment{
				{Kind: SegmentBlockComment, Text: "/* it's */", Offset: 0, Terminated: true},
				{Kind: SegmentCode, Text: "x", Offset: 10, Terminated: true},
			},
		},
		{
			name:  "doubled quote is close and reopen",
			input: "'it''s'",
			want: []Segment{
				{Kind: SegmentSingleQuoted, Text: "'it'", Offset: 0, Terminated: true},
				{Kind: SegmentSingleQuoted, Text: "'s'", Offset: 4, Terminated: true},
			},
		},
		{
			name:  "single quote inside double quotes",
			input: `"a'b"`,
			want: []Segment{
				{Kind: SegmentDoubleQuoted, Text: `"a'b"`, Offset: 0, Terminated: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segments(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Segments(%q) returned %d segments, want %d: %+v", tt.input, len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d:\ngot:  %+v\nwant: %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScan_StopsEarly(t *testing.T) {
	calls := 0
	Scan("a 'b' c 'd'", func(seg Segment) bool {
		calls++
		return seg.Kind != SegmentSingleQuoted
	})
	if calls != 2 {
		t.Errorf("visit called %d times, want 2", calls)
	}
}

func TestScan_ReassemblesInput(t *testing.T) {
	input := "SELECT 'a' /* b */ -- c\n\"d\" 'e"
	var b strings.Builder
	for _, seg := range Segments(input) {
		b.WriteString(seg.Text)
	}
	if b.String() != input {
		t.Errorf("segments reassemble to %q, want %q", b.String(), input)
	}
}
