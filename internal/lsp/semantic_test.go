package lsp

import (
	"reflect"
	"testing"
)

func TestEncodeTokens_Empty(t *testing.T) {
	result := encodeTokens([]SemanticToken{})
	expected := []uint32{}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens([]) = %v, want %v", result, expected)
	}
}

func TestEncodeTokens_SameLineIsRelative(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 0, StartChar: 0, Length: 5, Type: tokenKeyword},                           // "route"
		{Line: 0, StartChar: 6, Length: 4, Type: tokenFunction, Modifiers: modDeclaration}, // "AUTH"
	}
	result := encodeTokens(tokens)
	expected := []uint32{0, 0, 5, 2, 0, 0, 6, 4, 3, 1}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens() = %v, want %v", result, expected)
	}
}

func TestEncodeTokens_NewLineIsAbsolute(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 0, StartChar: 4, Length: 7, Type: tokenComment},
		{Line: 2, StartChar: 2, Length: 4, Type: tokenFunction},
	}
	result := encodeTokens(tokens)
	expected := []uint32{0, 4, 7, 0, 0, 2, 2, 4, 3, 0}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens() = %v, want %v", result, expected)
	}
}

func TestEncodeTokens_SortsTokens(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 1, StartChar: 0, Length: 4, Type: 1, Modifiers: 0},
		{Line: 0, StartChar: 0, Length: 7, Type: 0, Modifiers: 0},
	}
	result := encodeTokens(tokens)
	expected := []uint32{0, 0, 7, 0, 0, 1, 0, 4, 1, 0}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("encodeTokens() = %v, want %v", result, expected)
	}
}

func TestSemanticTokensFull(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []uint32
	}{
		{
			name:    "empty",
			content: "",
			want:    []uint32{},
		},
		{
			name:    "comment",
			content: "  # hello",
			want:    []uint32{0, 2, 7, tokenComment, 0},
		},
		{
			name:    "banner",
			content: "####### Routing #######",
			want:    []uint32{0, 0, 23, tokenComment, 0},
		},
		{
			name:    "define",
			content: "#!define WITH_AUTH",
			want:    []uint32{0, 0, 8, tokenMacro, 0, 0, 9, 9, tokenVariable, modDeclaration},
		},
		{
			name:    "ifdef",
			content: "#!ifdef WITH_AUTH\n#!endif",
			want: []uint32{
				0, 0, 7, tokenMacro, 0, 0, 8, 9, tokenVariable, 0,
				1, 0, 7, tokenMacro, 0,
			},
		},
		{
			name:    "route with call and pseudo-variable",
			content: "route[AUTH] {\n  xlog(\"$ru\");\n}\n",
			want: []uint32{
				0, 0, 5, tokenKeyword, 0, 0, 6, 4, tokenFunction, modDeclaration,
				1, 2, 4, tokenFunction, 0, 0, 6, 3, tokenVariable, 0,
			},
		},
		{
			name:    "route reference",
			content: "request_route {\n  route(AUTH);\n}\n",
			want: []uint32{
				0, 0, 13, tokenKeyword, 0,
				1, 8, 4, tokenFunction, 0,
			},
		},
		{
			name:    "conditional",
			content: "if (is_method(\"INVITE\"))",
			want:    []uint32{0, 0, 2, tokenKeyword, 0, 0, 4, 9, tokenFunction, 0},
		},
		{
			name:    "module directive",
			content: "loadmodule \"tm.so\"",
			want:    []uint32{0, 0, 10, tokenKeyword, 0},
		},
		{
			name:    "utf-16 columns",
			content: "xlog(\"é $ru\");",
			want:    []uint32{0, 0, 4, tokenFunction, 0, 0, 8, 3, tokenVariable, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := semanticTokensFull(Analyze(tt.content, false), tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("semanticTokensFull() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSemanticTokensFull_NilResult(t *testing.T) {
	if got := semanticTokensFull(nil, "route[A] {}"); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestSemanticTokensFull_WholeDocument(t *testing.T) {
	data := semanticTokensFull(Analyze(sampleConfig, false), sampleConfig)

	if len(data) == 0 || len(data)%5 != 0 {
		t.Fatalf("expected a non-empty multiple of 5 integers, got %d", len(data))
	}

	var line, prevStart uint32
	for i := 0; i < len(data); i += 5 {
		if data[i] > 0 {
			prevStart = 0
		}
		line += data[i]
		start := prevStart + data[i+1]
		if int(data[i+3]) >= len(semanticTokenTypes) {
			t.Errorf("token %d: type %d out of range", i/5, data[i+3])
		}
		if data[i+2] == 0 {
			t.Errorf("token %d at %d:%d has zero length", i/5, line, start)
		}
		prevStart = start
	}
}
