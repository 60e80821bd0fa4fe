/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand"
)

var (
	nameAdjectives = [...]string{"Swift", "Clever", "Bold", "Cunning", "Mighty", "Sharp", "Quick", "Brave", "Wise", "Fearless"}
	nameNouns      = [...]string{"Rook", "Knight", "Bishop", "Queen", "Pawn", "Eagle", "Tiger", "Lion", "Fox", "Wolf"}
)

// generateName returns a random "<Adjective> <Noun>" display name.
func generateName() string {
	adj := nameAdjectives[rand.Intn(len(nameAdjectives))]
	noun := nameNouns[rand.Intn(len(nameNouns))]

	return adj + " " + noun
}
