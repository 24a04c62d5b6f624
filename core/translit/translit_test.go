package translit

import (
	"errors"
	"reflect"
	"testing"
)

func mustTable(t *testing.T, text string) *Table {
	t.Helper()
	table, err := ParseTable([]byte(text))
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	return table
}

func TestParseTable(t *testing.T) {
	table := mustTable(t, "# comment\n\nch --> tS\nc --> k\n. --\n")
	if table.Len() != 3 {
		t.Fatalf("expected 3 rules, got %d", table.Len())
	}

	rules := table.Rules()
	if rules[0].Pattern != "ch" || rules[0].Kind != RuleSubstitute {
		t.Errorf("unexpected first rule: %+v", rules[0])
	}
	if !reflect.DeepEqual(rules[0].Replacement, []string{"tS"}) {
		t.Errorf("unexpected replacement: %v", rules[0].Replacement)
	}
	if rules[2].Pattern != "." || rules[2].Kind != RuleDelete {
		t.Errorf("unexpected deletion rule: %+v", rules[2])
	}
	if len(rules[2].Replacement) != 0 {
		t.Errorf("deletion rule should have no replacement: %v", rules[2].Replacement)
	}
}

func TestParseTableMultiSymbolReplacement(t *testing.T) {
	table := mustTable(t, "x --> k s\n")
	if !reflect.DeepEqual(table.Rules()[0].Replacement, []string{"k", "s"}) {
		t.Errorf("replacement should split into symbols: %v", table.Rules()[0].Replacement)
	}
}

func TestParseTableMalformed(t *testing.T) {
	_, err := ParseTable([]byte("ch --> tS\nnonsense line\n"))
	var malformed *MalformedRuleError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRuleError, got %v", err)
	}
	if malformed.Line != 2 {
		t.Errorf("expected error at line 2, got %d", malformed.Line)
	}
}

func TestRuleOrderDeterminism(t *testing.T) {
	// "ch" before "c": the digraph is consumed first.
	table := mustTable(t, "ch --> C\nc --> k\n")
	got, _ := New(table).Word("chat")
	if !reflect.DeepEqual(got, []string{"C", "a", "t"}) {
		t.Errorf("ch-first table on %q = %v, want [C a t]", "chat", got)
	}

	// Swapped order: "c" wins at position 0, "h" passes through.
	swapped := mustTable(t, "c --> k\nch --> C\n")
	got, _ = New(swapped).Word("chat")
	if !reflect.DeepEqual(got, []string{"k", "h", "a", "t"}) {
		t.Errorf("c-first table on %q = %v, want [k h a t]", "chat", got)
	}
}

func TestDeletionIsSilent(t *testing.T) {
	table := mustTable(t, ". --\n")
	withDot, _ := New(table).Word("hi.")
	without, _ := New(table).Word("hi")
	if !reflect.DeepEqual(withDot, without) {
		t.Errorf("deletion should contribute nothing: %v vs %v", withDot, without)
	}
}

func TestPassThroughReported(t *testing.T) {
	table := mustTable(t, "a --> a\n")
	symbols, unmapped := New(table).Word("ab")
	if !reflect.DeepEqual(symbols, []string{"a", "b"}) {
		t.Errorf("symbols = %v, want [a b]", symbols)
	}
	if len(unmapped) != 1 || unmapped[0].Char != 'b' || unmapped[0].Pos != 1 {
		t.Errorf("unmapped = %+v, want [{b 1}]", unmapped)
	}
}

func TestEndToEndCasa(t *testing.T) {
	table := mustTable(t, "C --> k\na --> a\ns --> s\n. --\n")
	got, unmapped := New(table).Word("Casa.")
	if !reflect.DeepEqual(got, []string{"k", "a", "s", "a"}) {
		t.Errorf("Casa. = %v, want [k a s a]", got)
	}
	if len(unmapped) != 0 {
		t.Errorf("no character should pass through: %+v", unmapped)
	}
}

func TestSymbolSetAccumulates(t *testing.T) {
	table := mustTable(t, "ch --> tS\na --> a\n")
	tr := New(table)
	tr.Word("cha")
	tr.Word("ach")
	want := []string{"a", "tS"}
	if got := tr.Symbols(); !reflect.DeepEqual(got, want) {
		t.Errorf("Symbols() = %v, want %v", got, want)
	}
}

func TestMultiByteInput(t *testing.T) {
	table := mustTable(t, "ɛ --> E\n")
	got, unmapped := New(table).Word("ɛŋ")
	if !reflect.DeepEqual(got, []string{"E", "ŋ"}) {
		t.Errorf("symbols = %v, want [E ŋ]", got)
	}
	if len(unmapped) != 1 || unmapped[0].Char != 'ŋ' || unmapped[0].Pos != 1 {
		t.Errorf("unmapped = %+v", unmapped)
	}
}

func TestLintShadowedRules(t *testing.T) {
	table := mustTable(t, "c --> k\nch --> C\n")
	shadowed := table.Lint()
	if len(shadowed) != 1 {
		t.Fatalf("expected 1 shadowed rule, got %d", len(shadowed))
	}
	if shadowed[0].Earlier.Pattern != "c" || shadowed[0].Later.Pattern != "ch" {
		t.Errorf("unexpected shadow pair: %+v", shadowed[0])
	}

	clean := mustTable(t, "ch --> C\nc --> k\n")
	if got := clean.Lint(); len(got) != 0 {
		t.Errorf("well-ordered table should lint clean, got %+v", got)
	}
}
