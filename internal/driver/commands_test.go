package driver

import (
	"bytes"
	"errors"
	"testing"

	"github.com/covguard/fuzzcheck/internal/sensor"
)

func TestReadReportsCrash(t *testing.T) {
	target := func(input []byte) (bool, error) {
		return bytes.Contains(input, []byte("bad")), nil
	}

	crashed, err := Read(target, []byte("this is bad input"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !crashed {
		t.Fatal("crashed = false, want true")
	}

	crashed, err = Read(target, []byte("fine"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if crashed {
		t.Fatal("crashed = true, want false")
	}
}

func TestReadPropagatesTargetError(t *testing.T) {
	wantErr := errors.New("boom")
	target := func(input []byte) (bool, error) { return false, wantErr }

	if _, err := Read(target, []byte("x")); err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestMinifyShrinksCrashingInput(t *testing.T) {
	target := func(input []byte) (bool, error) {
		return bytes.Contains(input, []byte{0xff}), nil
	}

	input := append(bytes.Repeat([]byte{0x01}, 64), 0xff)
	result, err := Minify(target, input, 16, 42, 200)
	if err != nil {
		t.Fatalf("Minify: %v", err)
	}
	if len(result) >= len(input) {
		t.Fatalf("len(result) = %d, want smaller than %d", len(result), len(input))
	}
	crashed, err := target(result)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if !crashed {
		t.Fatal("minified input no longer reproduces the crash")
	}
}

func TestMinifyRejectsInputThatDoesNotCrash(t *testing.T) {
	target := func(input []byte) (bool, error) { return false, nil }

	if _, err := Minify(target, []byte("fine"), 16, 1, 10); err == nil {
		t.Fatal("Minify returned nil error for a non-crashing input")
	}
}

func TestMinifyOnlyKeepsCandidatesPreservingEveryOriginalFeature(t *testing.T) {
	// Guard byte 0xaa must always fire for the target to crash; guard byte
	// 0xbb is a second feature only the original input reaches. A
	// feature-preserving minify must never accept a candidate that drops it,
	// even though dropping it also shrinks the input.
	target := func(input []byte) (bool, error) {
		sawA, sawB := false, false
		for _, b := range input {
			switch b {
			case 0xaa:
				sensor.HitEdge(0xaa)
				sawA = true
			case 0xbb:
				sensor.HitEdge(0xbb)
				sawB = true
			}
		}
		return sawA && sawB, nil
	}

	input := []byte{0xaa, 0xbb, 0x01, 0x02, 0x03}
	result, err := Minify(target, input, 16, 9, 300)
	if err != nil {
		t.Fatalf("Minify: %v", err)
	}

	hasA, hasB := false, false
	for _, b := range result {
		if b == 0xaa {
			hasA = true
		}
		if b == 0xbb {
			hasB = true
		}
	}
	if !hasA || !hasB {
		t.Fatalf("minified result %v dropped a required feature byte", result)
	}
}

func TestMinifyCorpusKeepsCoverageProducingInputs(t *testing.T) {
	target := func(input []byte) (bool, error) {
		for _, b := range input {
			sensor.HitEdge(uint64(b) + 1)
		}
		return false, nil
	}

	corpus := [][]byte{{1}, {1}, {2}, {1, 2, 3}}
	kept, err := MinifyCorpus(target, corpus, Options{MaxComplexity: 32, RNGSeed: 7})
	if err != nil {
		t.Fatalf("MinifyCorpus: %v", err)
	}
	if len(kept) == 0 {
		t.Fatal("kept corpus is empty, want at least one surviving input")
	}
	if len(kept) > len(corpus) {
		t.Fatalf("kept %d inputs, want at most %d", len(kept), len(corpus))
	}
}
