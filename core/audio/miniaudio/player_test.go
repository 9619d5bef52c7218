package miniaudio

import (
	"bytes"
	"testing"
	"time"
)

func TestFillPlaysPendingAudioAndPadsSilence(t *testing.T) {
	p := &player{pending: []byte{1, 2, 3, 4}}

	output := bytes.Repeat([]byte{9}, 8)
	p.fill(2)(output, nil, 4)

	if !bytes.Equal(output, []byte{1, 2, 3, 4, 0, 0, 0, 0}) {
		t.Fatalf("unexpected output %v", output)
	}
	if len(p.pending) != 0 {
		t.Fatalf("expected buffer to be drained, %d bytes left", len(p.pending))
	}
}

func TestMarkFiresAfterPrecedingAudioPlays(t *testing.T) {
	p := &player{pending: make([]byte, 8)}

	reached := make(chan string, 1)
	p.mark("end", func(name string) { reached <- name })
	p.pending = append(p.pending, make([]byte, 8)...)

	p.fill(2)(make([]byte, 4), nil, 2)
	select {
	case name := <-reached:
		t.Fatalf("mark %q fired before its audio played", name)
	case <-time.After(20 * time.Millisecond):
	}

	p.fill(2)(make([]byte, 4), nil, 2)
	select {
	case name := <-reached:
		if name != "end" {
			t.Fatalf("unexpected mark %q", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for mark")
	}
}

func TestClearDropsAudioAndMarks(t *testing.T) {
	p := &player{pending: make([]byte, 8)}
	p.mark("dropped", func(string) { t.Errorf("cleared mark should not fire") })

	p.clear()
	p.fill(2)(make([]byte, 4), nil, 2)
	time.Sleep(10 * time.Millisecond)

	if len(p.pending) != 0 || len(p.marks) != 0 {
		t.Fatalf("expected empty player, got %d bytes and %d marks", len(p.pending), len(p.marks))
	}
}
