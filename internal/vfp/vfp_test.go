package vfp

import "testing"

func TestIdentityPassesThrough(t *testing.T) {
	id := Identity{}
	if err := id.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	var out []byte
	if _, err := id.Step(&out, []byte("hello ")); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if _, err := id.Step(&out, []byte("world")); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if err := id.End(&out); err != nil {
		t.Fatalf("End: %v", err)
	}
	if string(out) != "hello world" {
		t.Fatalf("out = %q", out)
	}
}

func TestGzipGunzipRoundTrip(t *testing.T) {
	in := []byte("the quick brown fox jumps over the lazy dog, repeated many times, the quick brown fox jumps over the lazy dog")

	gz := NewGzip()
	if err := gz.Start(); err != nil {
		t.Fatalf("gzip Start: %v", err)
	}
	var compressed []byte
	if _, err := gz.Step(&compressed, in); err != nil {
		t.Fatalf("gzip Step: %v", err)
	}
	if err := gz.End(&compressed); err != nil {
		t.Fatalf("gzip End: %v", err)
	}
	if len(compressed) == 0 {
		t.Fatalf("expected non-empty compressed output")
	}

	gu := NewGunzip()
	if err := gu.Start(); err != nil {
		t.Fatalf("gunzip Start: %v", err)
	}
	if _, err := gu.Step(new([]byte), compressed); err != nil {
		t.Fatalf("gunzip Step: %v", err)
	}
	var out []byte
	if err := gu.End(&out); err != nil {
		t.Fatalf("gunzip End: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("round trip mismatch: got %q", out)
	}
}

func TestTestGzipRejectsCorruptBody(t *testing.T) {
	tg := NewTestGzip()
	tg.Start()
	var out []byte
	tg.Step(&out, []byte("not actually gzip"))
	if err := tg.End(&out); err == nil {
		t.Fatalf("expected an error validating a non-gzip body")
	}
}
