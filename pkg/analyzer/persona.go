package analyzer

import (
	"math/rand/v2"
	"strings"
)

var personas = []string{
	"You are a music historian focusing on the PIONEERS and FOUNDERS of this sound.",
	"You are a contemporary music curator focused on MODERN ARTISTS and CURRENT SCENES.",
	"You are an underground music expert focused on OBSCURE and LESSER-KNOWN artists.",
	"You are a music anthropologist studying the CULTURAL and REGIONAL aspects of this sound.",
	"You are a record collector focused on VINTAGE and CLASSIC representations of this style.",
}

// PersonaFor picks the persona used to frame the completion request. Without
// a seed the first persona is always used; with one the choice is derived from
// a source local to the call.
func PersonaFor(seed *int64) string {
	if seed == nil {
		return personas[0]
	}
	r := rand.New(rand.NewPCG(uint64(*seed), 0x9e3779b97f4a7c15))
	return personas[r.IntN(len(personas))]
}

// PersonaLabel is the persona text up to its first period.
func PersonaLabel(persona string) string {
	if i := strings.Index(persona, "."); i >= 0 {
		return persona[:i]
	}
	return persona
}
