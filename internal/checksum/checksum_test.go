package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
	if String("abc") != want {
		t.Error("String disagrees with Sum")
	}
}

func TestETag(t *testing.T) {
	if got := ETag("abc"); got != `"ba7816bf8f01cfea414140de5dae2223"` {
		t.Errorf("ETag = %q", got)
	}
}
