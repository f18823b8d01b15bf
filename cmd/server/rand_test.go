package main

import "github.com/phrazzld/scry-notes/internal/domain/schedule"

// fixedRand always picks the lowest option.
type fixedRand struct{}

func (fixedRand) IntN(int) int { return 0 }

func newFixedRand() schedule.RandomSource { return fixedRand{} }
