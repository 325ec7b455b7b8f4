package interp

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TestGoldenStringify pins the print-formatter output of spec.md §6
// across every Value kind, grounded on the teacher's golden-file
// convention (lexer/lexer_test.go TestGolden).
func TestGoldenStringify(t *testing.T) {
	list := &List{Elements: []Value{Number(1), String("two"), Bool(true), NilVal}}

	dict := NewDict()
	dict.Set(String("a"), Number(1))
	dict.Set(Number(2), String("b"))

	class := &Class{Name: "Greeter", Methods: map[string]*Function{}}
	instance := &Instance{Class: class, Fields: map[string]Value{}}
	fn := &Function{Name: "greet"}
	lambda := &Function{}

	lines := []string{
		Stringify(NilVal),
		Stringify(Bool(true)),
		Stringify(Bool(false)),
		Stringify(Number(3)),
		Stringify(Number(3.5)),
		Stringify(String("hello")),
		Stringify(list),
		Stringify(dict),
		Stringify(class),
		Stringify(instance),
		Stringify(fn),
		Stringify(lambda),
	}

	g := goldie.New(t)
	g.Assert(t, "stringify", []byte(strings.Join(lines, "\n")+"\n"))
}
