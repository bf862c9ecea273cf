package tokens

import (
	"strings"
	"testing"

	"persona-chat-client/internal/domain/model"
)

// wordCounter makes test budgets easy to reason about: one token per
// whitespace-separated word.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func msgs(contents ...string) []model.Message {
	out := make([]model.Message, 0, len(contents))
	for _, c := range contents {
		out = append(out, model.NewMessage(model.RoleUser, c))
	}
	return out
}

func contents(in []model.Message) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		out = append(out, m.Content)
	}
	return out
}

func TestTruncate_KeepsNewestWithinBudget(t *testing.T) {
	in := msgs("one two three", "four five", "six")
	got := Truncate(in, wordCounter{}, 10, 7) // budget 3

	want := []string{"four five", "six"}
	if len(got) != len(want) {
		t.Fatalf("kept %d messages, want %d", len(got), len(want))
	}
	for i, c := range contents(got) {
		if c != want[i] {
			t.Fatalf("kept[%d] = %q, want %q", i, c, want[i])
		}
	}
}

func TestTruncate_ZeroReservedMeansFullContext(t *testing.T) {
	in := msgs("one two", "three four")
	got := Truncate(in, wordCounter{}, 4, 0)
	if len(got) != 2 {
		t.Fatalf("kept %d messages, want all 2", len(got))
	}
}

func TestTruncate_NeverEmptyForNonEmptyInput(t *testing.T) {
	in := msgs("this single message is far larger than the whole budget")
	got := Truncate(in, wordCounter{}, 3, 1)
	if len(got) != 1 {
		t.Fatalf("kept %d messages, want the oversized one alone", len(got))
	}
	if got[0].ID != in[0].ID {
		t.Fatalf("kept a different message than the most recent one")
	}
}

func TestTruncate_EmptyInput(t *testing.T) {
	if got := Truncate(nil, wordCounter{}, 100, 0); len(got) != 0 {
		t.Fatalf("truncating nothing kept %d messages", len(got))
	}
}

func TestTruncate_Idempotent(t *testing.T) {
	in := msgs("a b c d", "e f", "g h i", "j")
	first := Truncate(in, wordCounter{}, 12, 6)
	second := Truncate(first, wordCounter{}, 12, 6)

	if len(first) != len(second) {
		t.Fatalf("second pass kept %d, first kept %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("second pass diverged at index %d", i)
		}
	}
}

func TestTruncate_PreservesOrder(t *testing.T) {
	in := msgs("a", "b", "c", "d")
	got := Truncate(in, wordCounter{}, 3, 0)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1].Content, got[i].Content
		if prev >= cur {
			t.Fatalf("order not preserved: %q before %q", prev, cur)
		}
	}
}
