package conversations

import (
	"fmt"
	"testing"

	"github.com/koscakluka/ema-voice/core/llms"
)

func TestNewContextStartsWithPreamble(t *testing.T) {
	c := New()

	turns := c.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected preamble of 2 turns, got %d", len(turns))
	}
	if turns[0] != llms.UserTurn(DefaultPersona) {
		t.Fatalf("expected persona turn first, got %+v", turns[0])
	}
	if turns[1] != llms.AssistantTurn(DefaultAcknowledgement) {
		t.Fatalf("expected acknowledgement turn second, got %+v", turns[1])
	}
}

func TestAppendEvictsOldestNonPreambleTurns(t *testing.T) {
	for _, maxTurns := range []int{2, 3, 10, 102} {
		t.Run(fmt.Sprintf("max %d", maxTurns), func(t *testing.T) {
			c := New(WithMaxTurns(maxTurns), WithPreamble("persona", "ack"))

			for i := range maxTurns * 2 {
				c.AppendUser(fmt.Sprintf("question %d", i))
				c.AppendAssistant(fmt.Sprintf("answer %d", i))

				turns := c.Turns()
				if len(turns) > maxTurns {
					t.Fatalf("expected at most %d turns, got %d", maxTurns, len(turns))
				}
				if turns[0] != llms.UserTurn("persona") || turns[1] != llms.AssistantTurn("ack") {
					t.Fatalf("expected preamble to survive eviction, got %+v", turns[:2])
				}
			}

			turns := c.Turns()
			if maxTurns > 2 {
				last := turns[len(turns)-1]
				if last != llms.AssistantTurn(fmt.Sprintf("answer %d", maxTurns*2-1)) {
					t.Fatalf("expected newest turn to be kept, got %+v", last)
				}
			}
		})
	}
}

func TestResetRestoresExactlyThePreamble(t *testing.T) {
	c := New(WithPreamble("persona", "ack"))
	c.AppendUser("hello")
	c.AppendAssistant("hi")

	c.Reset()

	turns := c.Turns()
	if len(turns) != 2 || turns[0].Content != "persona" || turns[1].Content != "ack" {
		t.Fatalf("expected exactly the preamble after reset, got %+v", turns)
	}
}

func TestClearEmptiesContext(t *testing.T) {
	c := New()
	c.AppendUser("hello")

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty context, got %d turns", c.Len())
	}
}

func TestMaxTurnsIsNeverBelowPreamble(t *testing.T) {
	c := New(WithMaxTurns(0))
	if c.MaxTurns() != 2 {
		t.Fatalf("expected max turns raised to 2, got %d", c.MaxTurns())
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	c := New()
	turns := c.Turns()
	turns[0].Content = "tampered"

	if c.Turns()[0].Content != DefaultPersona {
		t.Fatalf("expected context to be unaffected by caller mutation")
	}
}

func TestRValuesIteratesNewestFirst(t *testing.T) {
	c := New(WithPreamble("persona", "ack"))
	c.AppendUser("latest")

	collected := []string{}
	for turn := range c.RValues {
		collected = append(collected, turn.Content)
	}

	if len(collected) != 3 || collected[0] != "latest" || collected[2] != "persona" {
		t.Fatalf("expected newest first, got %v", collected)
	}
}
