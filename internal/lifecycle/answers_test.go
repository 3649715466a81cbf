package lifecycle

import (
	"reflect"
	"testing"
)

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"option object with id", map[string]interface{}{"id": "x"}, "x"},
		{"option object with value", map[string]interface{}{"value": "y"}, "y"},
		{"id takes precedence over value", map[string]interface{}{"id": "a", "value": "b"}, "a"},
		{"numeric value field", map[string]interface{}{"value": 3.5}, 3.5},
		{"boolean value field", map[string]interface{}{"value": true}, true},
		{"nested non-primitive value", map[string]interface{}{"value": map[string]interface{}{"deep": 1}}, nil},
		{"plain string", "hello", "hello"},
		{"plain number", float64(3), float64(3)},
		{"plain bool", false, false},
		{"array is invalid scalar input", []interface{}{"a", "b"}, nil},
		{"nil input", nil, nil},
		{"object without id or value", map[string]interface{}{"label": "x"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeAnswer(tc.in)
			if got != tc.want {
				t.Errorf("NormalizeAnswer(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeForSubmission(t *testing.T) {
	got := NormalizeForSubmission([]interface{}{
		map[string]interface{}{"id": "a"},
		"b",
		map[string]interface{}{"value": float64(2)},
		map[string]interface{}{"junk": 1}, // 无效元素被丢弃
	})
	want := []interface{}{"a", "b", float64(2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeForSubmission array = %v, want %v", got, want)
	}

	if NormalizeForSubmission([]interface{}{}) != nil {
		t.Error("empty array should normalize to nil")
	}
	if NormalizeForSubmission([]interface{}{map[string]interface{}{"x": 1}}) != nil {
		t.Error("array of invalid elements should normalize to nil")
	}
	if got := NormalizeForSubmission("plain"); got != "plain" {
		t.Errorf("scalar passthrough = %v", got)
	}
}

func TestIsSelected(t *testing.T) {
	option := map[string]interface{}{"value": "b"}

	if !IsSelected([]interface{}{"a", "b"}, option) {
		t.Error("array current containing option value should be selected")
	}
	if IsSelected([]interface{}{"a", "c"}, option) {
		t.Error("array without option value should not be selected")
	}
	if !IsSelected("b", option) {
		t.Error("scalar current equal to option should be selected")
	}
	if !IsSelected(map[string]interface{}{"id": "b"}, map[string]interface{}{"id": "b"}) {
		t.Error("both sides as option objects should compare by normalized value")
	}
	if !IsSelected([]interface{}{map[string]interface{}{"id": "b"}}, "b") {
		t.Error("selection must be symmetric across representations")
	}
	if IsSelected(nil, option) {
		t.Error("nil current is never selected")
	}
	// 数字跨类型比较
	if !IsSelected([]interface{}{float64(3)}, 3) {
		t.Error("numeric equality should not depend on concrete type")
	}
}

func TestIsAnswered(t *testing.T) {
	cases := []struct {
		name  string
		v     interface{}
		qtype string
		want  bool
	}{
		{"non-empty string", "answer", "text", true},
		{"whitespace only", "   ", "text", false},
		{"empty string", "", "text", false},
		{"non-empty array", []interface{}{"a"}, "multi_select", true},
		{"empty array", []interface{}{}, "multi_select", false},
		{"numeric as number", float64(7), "numeric", true},
		{"numeric as parseable string", "3.14", "numeric", true},
		{"numeric as text", "abc", "numeric", false},
		{"numeric zero is answered", float64(0), "numeric", true},
		{"bool answer", true, "single_choice", true},
		{"nil answer", nil, "text", false},
		{"option object", map[string]interface{}{"id": "opt1"}, "single_choice", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAnswered(tc.v, tc.qtype); got != tc.want {
				t.Errorf("IsAnswered(%v, %q) = %v, want %v", tc.v, tc.qtype, got, tc.want)
			}
		})
	}
}

func TestBuildSubmissionDropsEmpties(t *testing.T) {
	payload := BuildSubmission(map[string]interface{}{
		"q1": map[string]interface{}{"id": "a"},
		"q2": "",
		"q3": "  ",
		"q4": []interface{}{},
		"q5": nil,
		"q6": []interface{}{"x", map[string]interface{}{"value": "y"}},
		"q7": float64(0),
	})

	if _, ok := payload["q2"]; ok {
		t.Error("empty string answer must be dropped")
	}
	if _, ok := payload["q3"]; ok {
		t.Error("whitespace answer must be dropped")
	}
	if _, ok := payload["q4"]; ok {
		t.Error("empty array answer must be dropped")
	}
	if _, ok := payload["q5"]; ok {
		t.Error("nil answer must never be sent as explicit null")
	}
	if payload["q1"] != "a" {
		t.Errorf("q1 = %v, want a", payload["q1"])
	}
	if !reflect.DeepEqual(payload["q6"], []interface{}{"x", "y"}) {
		t.Errorf("q6 = %v, want [x y]", payload["q6"])
	}
	if payload["q7"] != float64(0) {
		t.Error("zero is a valid answer and must be kept")
	}
	if len(payload) != 3 {
		t.Errorf("payload has %d keys, want 3", len(payload))
	}
}
